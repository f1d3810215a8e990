package validate

import (
	"fmt"

	"pizzaria_backend/model"
	"pizzaria_backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func parseAndValidate[T any](c *fiber.Ctx) (*T, error) {
	input := new(T)
	if err := c.BodyParser(input); err != nil {
		return nil, utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("Não foi possível interpretar a requisição: %s", err.Error()), err)
	}
	if err := validate.Struct(input); err != nil {
		return nil, utils.ErrorResponse(c, fiber.StatusBadRequest, "Dados inválidos", err)
	}
	return input, nil
}

func UpdateStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.UpdateStatusInput](c)
		if err != nil {
			return err
		}
		c.Locals("input", *input)
		return c.Next()
	}
}

func UpdatePaymentStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.UpdatePaymentStatusInput](c)
		if err != nil {
			return err
		}
		c.Locals("input", *input)
		return c.Next()
	}
}

func UpdateReservation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.UpdateReservationInput](c)
		if err != nil {
			return err
		}
		c.Locals("input", *input)
		return c.Next()
	}
}

func Refund() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.RefundInput](c)
		if err != nil {
			return err
		}
		c.Locals("input", *input)
		return c.Next()
	}
}
