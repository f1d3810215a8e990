package handler

import (
	"errors"
	"time"

	"pizzaria_backend/helper"
	"pizzaria_backend/model"
	"pizzaria_backend/store"
	"pizzaria_backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	Store *store.OrderStore
	Pix   *helper.PixClient
	Mail  *Mailer
	Log   *zap.SugaredLogger
}

func NewCheckoutHandler(s *store.OrderStore, pix *helper.PixClient, mail *Mailer, log *zap.SugaredLogger) *CheckoutHandler {
	return &CheckoutHandler{Store: s, Pix: pix, Mail: mail, Log: log}
}

// Submit sequencia carrinho → pedido → (opcional) sessão PIX. Cash/cartão e
// pix-pagar-depois completam direto como pending; pix-pagar-agora anexa a
// cobrança. Falha do provedor nunca perde o pedido: a resposta carrega o
// pedido criado e o erro, e o cliente escolhe retry ou pagar-depois.
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CheckoutInput)
	return h.submit(c, input)
}

// SubmitAction recebe a ação do chatbot já validada; daqui pra baixo o caminho
// é idêntico ao do formulário manual.
func (h *CheckoutHandler) SubmitAction(c *fiber.Ctx) error {
	action := c.Locals("action").(model.ChatAction)

	switch action.Type {
	case "order":
		return h.submit(c, *action.Order)
	case "reservation":
		return h.submit(c, reservationToCheckout(*action.Reservation))
	}
	return utils.ErrorResponse(c, fiber.StatusBadRequest, "Ação desconhecida", nil)
}

// reservationToCheckout converte a reserva do chatbot no mesmo contrato do
// formulário manual; daqui para baixo os caminhos são idênticos.
func reservationToCheckout(r model.ReservationInput) model.CheckoutInput {
	return model.CheckoutInput{
		Name:            r.Name,
		Phone:           r.Phone,
		OrderType:       model.OrderTypeLocal,
		ReservationDate: r.ReservationDate,
		ReservationTime: r.ReservationTime,
		PaymentMethod:   model.PaymentCash,
		Notes:           r.Notes,
	}
}

// buildOrder monta o rascunho do pedido a partir do contrato de submissão. O
// núcleo não distingue a origem: formulário manual e chatbot passam por aqui
// com o mesmo resultado para o mesmo conteúdo.
func buildOrder(input model.CheckoutInput) (*model.Order, error) {
	var items []model.OrderItem
	if err := copier.Copy(&items, &input.Items); err != nil {
		return nil, err
	}

	deliveryFee := input.DeliveryFee
	if input.OrderType != model.OrderTypeDelivery {
		deliveryFee = 0
	}

	return &model.Order{
		CustomerName:    input.Name,
		Phone:           input.Phone,
		OrderType:       input.OrderType,
		Address:         utils.StringPtr(input.Address),
		ReservationDate: utils.StringPtr(input.ReservationDate),
		ReservationTime: utils.StringPtr(input.ReservationTime),
		Items:           items,
		DeliveryFee:     deliveryFee,
		Total:           helper.ComputeTotal(items, deliveryFee),
		Status:          model.StatusPending,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   model.PaymentPending,
		ChangeNeeded:    input.ChangeNeeded,
		ChangeAmount:    input.ChangeAmount,
		Notes:           utils.StringPtr(input.Notes),
	}, nil
}

func (h *CheckoutHandler) submit(c *fiber.Ctx, input model.CheckoutInput) error {
	order, err := buildOrder(input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao montar o pedido", err)
	}

	if err := h.Store.Create(c.Context(), order); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Não foi possível criar o pedido", err)
	}

	h.Log.Infow("pedido criado",
		"pedido", order.PublicCode,
		"numero", order.OrderNumber,
		"tipo", order.OrderType,
		"total", order.Total)

	go h.Mail.SendNewOrderMail(*order)

	// pix-pagar-agora: cria a cobrança atrelada ao pedido recém-persistido
	if input.PaymentMethod == model.PaymentPix && input.PayNow {
		session, err := createPixSession(c, h.Store, h.Pix, h.Log, order)
		if err != nil {
			var payErr *model.PaymentError
			if errors.As(err, &payErr) {
				// pedido preservado em pending, sem sessão; cliente decide
				return c.Status(fiber.StatusCreated).JSON(fiber.Map{
					"status":   "payment_failed",
					"data":     order,
					"error":    payErr.Error(),
					"nextStep": "retry ou pagar-depois",
				})
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao criar a sessão PIX", err)
		}
		order.Session = session
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, order)
}

// GetOrder devolve o snapshot atual para a tela de confirmação do cliente.
func (h *CheckoutHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.Store.GetByCode(c.Context(), c.Params("publicCode"))
	if err != nil {
		if store.IsNotFound(err) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Pedido não encontrado", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao carregar pedido", err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// CancelByCustomer permite ao cliente desistir antes da cozinha aceitar;
// depois disso só o admin cancela.
func (h *CheckoutHandler) CancelByCustomer(c *fiber.Ctx) error {
	order, err := h.Store.GetByCode(c.Context(), c.Params("publicCode"))
	if err != nil {
		if store.IsNotFound(err) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Pedido não encontrado", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao carregar pedido", err)
	}

	if order.Status != model.StatusPending {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "O pedido já está em preparo; fale com a pizzaria para cancelar", nil)
	}

	if err := helper.ApplyStatusTransition(order, model.StatusCancelled, time.Now()); err != nil {
		return respondLifecycleError(c, h.Log, err)
	}
	if err := h.Store.Update(c.Context(), order); err != nil {
		return respondStoreError(c, err)
	}

	go h.Mail.SendCancellationMail(*order)
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// createPixSession é o caminho compartilhado entre checkout e retry: valida as
// precondições, registra a cobrança e troca a sessão ativa do pedido. Tentativa
// concorrente substitui a sessão anterior (cancelada no provedor, melhor
// esforço) em vez de ser rejeitada.
func createPixSession(c *fiber.Ctx, s *store.OrderStore, pix *helper.PixClient, log *zap.SugaredLogger, order *model.Order) (*model.PaymentSession, error) {
	if order.PaymentMethod != model.PaymentPix {
		return nil, &model.ValidationError{Field: "paymentMethod", Reason: "pedido não é PIX"}
	}
	if order.Status != model.StatusPending && order.Status != model.StatusAwaitingPayment {
		return nil, &model.TransitionError{
			OrderType: order.OrderType,
			From:      order.Status,
			To:        order.Status,
			Allowed:   model.AllowedTargets(order.OrderType, order.Status),
		}
	}
	if order.PaymentStatus == model.PaymentPaidOnline {
		return nil, &model.ValidationError{Field: "paymentStatus", Reason: "pedido já pago"}
	}

	if order.Session != nil && order.Session.Active {
		if err := pix.CancelCharge(c.Context(), order.Session.ProviderChargeID); err != nil {
			log.Warnw("não cancelou cobrança anterior no provedor",
				"pedido", order.PublicCode, "charge", order.Session.ProviderChargeID, "err", err)
		}
	}

	session, err := pix.CreateCharge(c.Context(), order.Total, order.PublicCode)
	if err != nil {
		return nil, err
	}

	if err := s.AttachSession(c.Context(), order, session); err != nil {
		return nil, err
	}

	log.Infow("sessão pix criada",
		"pedido", order.PublicCode,
		"charge", session.ProviderChargeID,
		"expira", session.ExpiresAt.Format(time.RFC3339))
	return session, nil
}
