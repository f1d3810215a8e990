package router

import (
	"pizzaria_backend/handler"
	"pizzaria_backend/middleware"
	"pizzaria_backend/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
	Hub      *handler.Hub
}

func SetupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// webhook do provedor: fora do /api, server-to-server, autenticado por HMAC
	app.Post("/webhooks/pix", h.Payment.Webhook)

	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/login", h.Auth.Login)

	// fluxo do cliente
	v1.Post("/checkout", validate.Checkout(), h.Checkout.Submit)
	v1.Post("/checkout/acao", validate.ChatAction(), h.Checkout.SubmitAction)

	pedidos := v1.Group("/pedidos")
	pedidos.Get("/:publicCode", h.Checkout.GetOrder)
	pedidos.Post("/:publicCode/pix", h.Payment.CreateSession)
	pedidos.Post("/:publicCode/pagar-depois", h.Payment.PayLater)
	pedidos.Post("/:publicCode/cancelar", h.Checkout.CancelByCustomer)

	// websockets: cliente segue um pedido, admin segue todos
	ws := v1.Group("/ws")
	ws.Get("/pedidos/:publicCode", websocket.New(h.Hub.OrderSocket))
	ws.Get("/admin/pedidos", websocket.New(h.Hub.AdminSocket))

	// console admin
	admin := v1.Group("/admin", middleware.Protected())
	admin.Get("/pedidos", h.Order.ListActive)
	admin.Get("/pedidos/lixeira", h.Order.ListTrash)
	admin.Get("/pedidos/:publicCode", h.Order.GetByCode)
	admin.Patch("/pedidos/:publicCode/status", validate.UpdateStatus(), h.Order.UpdateStatus)
	admin.Patch("/pedidos/:publicCode/pagamento", validate.UpdatePaymentStatus(), h.Order.UpdatePaymentStatus)
	admin.Patch("/pedidos/:publicCode/reserva", validate.UpdateReservation(), h.Order.UpdateReservation)
	admin.Delete("/pedidos/:publicCode", h.Order.SoftDelete)
	admin.Post("/pedidos/:publicCode/restaurar", h.Order.Restore)
	admin.Delete("/pedidos/:publicCode/permanente", h.Order.PermanentDelete)
	admin.Post("/pedidos/:publicCode/reembolso", validate.Refund(), h.Payment.Refund)
	admin.Post("/pedidos/:publicCode/pix/cancelar", h.Payment.CancelSession)
}
