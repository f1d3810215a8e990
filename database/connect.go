package database

import (
	"fmt"
	"strconv"

	"pizzaria_backend/config"
	"pizzaria_backend/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect abre a conexão com o Postgres e roda as migrações. O handle é
// devolvido ao chamador e injetado em quem precisa; não existe global.
func Connect() (*gorm.DB, error) {
	p := config.ConfigOr("DB_PORT", "5432")
	port, err := strconv.ParseUint(p, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("porta do banco inválida: %w", err)
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.Config("DB_HOST"), port, config.Config("DB_USER"),
		config.Config("DB_PASSWORD"), config.Config("DB_NAME"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no banco: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Account{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentSession{},
	); err != nil {
		return nil, fmt.Errorf("falha ao migrar: %w", err)
	}

	if err := SeedAdmin(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Close encerra o pool subjacente (teardown explícito no shutdown).
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
