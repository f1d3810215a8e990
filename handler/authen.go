package handler

import (
	"errors"

	"pizzaria_backend/helper"
	"pizzaria_backend/model"
	"pizzaria_backend/store"
	"pizzaria_backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	Store *store.OrderStore
	Log   *zap.SugaredLogger
}

func NewAuthHandler(s *store.OrderStore, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{Store: s, Log: log}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	loginInput := new(LoginInput)
	if err := c.BodyParser(loginInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Informe usuário e senha", err)
	}
	if loginInput.Username == "" || loginInput.Password == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Informe usuário e senha", errors.New("campos obrigatórios"))
	}

	account, err := h.Store.FindAccount(c.Context(), loginInput.Username)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro interno", err)
	}
	if account == nil || !helper.CheckPasswordHash(loginInput.Password, account.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Usuário ou senha inválidos", nil)
	}
	if !account.Active {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Conta desativada", nil)
	}

	token, err := helper.GenerateAccessToken(model.TokenClaim{
		AccountId: account.ID,
		Username:  account.Username,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro interno", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: "None",
		Path:     "/",
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"accessToken": token,
		"username":    account.Username,
	})
}
