package validate

import (
	"pizzaria_backend/model"
	"pizzaria_backend/utils"

	"github.com/gofiber/fiber/v2"
)

// Checkout valida o contrato de submissão por tipo de pedido: endereço é
// obrigatório para entrega, reserva (data/hora) para local. Retirada não exige
// nada além dos campos comuns.
func Checkout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.CheckoutInput](c)
		if err != nil {
			return err
		}

		if verr := CheckoutRules(input); verr != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Dados inválidos", verr)
		}

		c.Locals("input", *input)
		return c.Next()
	}
}

// CheckoutRules concentra as regras por tipo para o formulário e o chatbot
// passarem pelo mesmo crivo.
func CheckoutRules(input *model.CheckoutInput) error {
	switch input.OrderType {
	case model.OrderTypeDelivery:
		if input.Address == "" {
			return &model.ValidationError{Field: "address", Reason: "endereço é obrigatório para entrega"}
		}
	case model.OrderTypeLocal:
		if input.ReservationDate == "" || input.ReservationTime == "" {
			return &model.ValidationError{Field: "reservation", Reason: "data e hora da reserva são obrigatórias"}
		}
	}

	// pedidos de entrega/retirada precisam de itens; reserva local pode vir
	// sem itens (consumo no salão)
	if input.OrderType != model.OrderTypeLocal && len(input.Items) == 0 {
		return &model.ValidationError{Field: "items", Reason: "o carrinho está vazio"}
	}

	if input.PayNow && input.PaymentMethod != model.PaymentPix {
		return &model.ValidationError{Field: "payNow", Reason: "pagamento imediato só está disponível via PIX"}
	}

	return nil
}

// ChatAction valida a variante etiquetada emitida pelo chatbot na borda, antes
// de qualquer coisa chegar ao checkout. Payload inválido é rejeitado inteiro,
// nunca confiado parcialmente.
func ChatAction() fiber.Handler {
	return func(c *fiber.Ctx) error {
		action, err := parseAndValidate[model.ChatAction](c)
		if err != nil {
			return err
		}

		switch action.Type {
		case "order":
			if action.Order == nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Dados inválidos",
					&model.ValidationError{Field: "order", Reason: "ação do tipo order sem payload de pedido"})
			}
			if err := validate.Struct(action.Order); err != nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Dados inválidos", err)
			}
			if verr := CheckoutRules(action.Order); verr != nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Dados inválidos", verr)
			}
		case "reservation":
			if action.Reservation == nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Dados inválidos",
					&model.ValidationError{Field: "reservation", Reason: "ação do tipo reservation sem payload de reserva"})
			}
			if err := validate.Struct(action.Reservation); err != nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Dados inválidos", err)
			}
		}

		c.Locals("action", *action)
		return c.Next()
	}
}
