package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config lê uma variável do .env (ou do ambiente do sistema).
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("arquivo .env não encontrado, usando variáveis do sistema")
		}
	})
	return os.Getenv(key)
}

// ConfigOr retorna fallback quando a variável não está definida.
func ConfigOr(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}
