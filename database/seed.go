package database

import (
	"errors"

	"pizzaria_backend/config"
	"pizzaria_backend/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin garante a conta inicial do console admin (ADMIN_USER/ADMIN_PASSWORD).
func SeedAdmin(db *gorm.DB) error {
	username := config.ConfigOr("ADMIN_USER", "admin")

	var existing model.Account
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	password := config.Config("ADMIN_PASSWORD")
	if password == "" {
		// sem senha configurada não criamos conta nenhuma
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return err
	}

	return db.Create(&model.Account{
		Username: username,
		Password: string(hash),
		Active:   true,
	}).Error
}
