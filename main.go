package main

import (
	"pizzaria_backend/config"
	"pizzaria_backend/database"
	"pizzaria_backend/handler"
	"pizzaria_backend/helper"
	"pizzaria_backend/router"
	"pizzaria_backend/store"
	"pizzaria_backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := utils.NewLogger()
	defer log.Sync()

	db, err := database.Connect()
	if err != nil {
		log.Fatalw("banco indisponível", "err", err)
	}
	defer database.Close(db)

	rdb := redis.NewClient(&redis.Options{
		Addr: config.ConfigOr("REDIS_ADDR", "localhost:6379"),
	})
	defer rdb.Close()

	bus := store.NewRedisBus(rdb)
	orderStore := store.NewOrderStore(db, rdb, bus, log)
	pixClient := helper.NewPixClient(log)
	mailer := handler.NewMailer(log)
	hub := handler.NewHub(orderStore, bus, log)

	sweeper := handler.StartSessionSweeper(orderStore, log)
	defer sweeper.Stop()
	purger := handler.StartTrashPurgeScheduler(orderStore, log)
	if purger != nil {
		defer purger.Shutdown()
	}

	app := fiber.New(fiber.Config{
		AppName: "pizzaria_backend",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ConfigOr("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	router.SetupRoutes(app, &router.Handlers{
		Auth:     handler.NewAuthHandler(orderStore, log),
		Checkout: handler.NewCheckoutHandler(orderStore, pixClient, mailer, log),
		Order:    handler.NewOrderHandler(orderStore, mailer, log),
		Payment:  handler.NewPaymentHandler(orderStore, pixClient, log),
		Hub:      hub,
	})

	port := config.ConfigOr("PORT", "8002")
	log.Fatal(app.Listen(":" + port))
}
