package utils

import (
	"pizzaria_backend/config"

	"go.uber.org/zap"
)

// NewLogger monta o logger estruturado do processo. APP_ENV=production troca
// para o encoder JSON.
func NewLogger() *zap.SugaredLogger {
	var logger *zap.Logger
	var err error

	if config.Config("APP_ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("não foi possível iniciar o logger: " + err.Error())
	}
	return logger.Sugar()
}
