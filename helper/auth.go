package helper

import (
	"time"

	"pizzaria_backend/config"
	"pizzaria_backend/model"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GenerateAccessToken(claim model.TokenClaim) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"accountId": claim.AccountId,
		"username":  claim.Username,
		"exp":       time.Now().Add(12 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(config.Config("JWT_SECRET")))
}
