package handler

import (
	"encoding/json"
	"errors"
	"time"

	"pizzaria_backend/helper"
	"pizzaria_backend/model"
	"pizzaria_backend/store"
	"pizzaria_backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Store *store.OrderStore
	Pix   *helper.PixClient
	Log   *zap.SugaredLogger
}

func NewPaymentHandler(s *store.OrderStore, pix *helper.PixClient, log *zap.SugaredLogger) *PaymentHandler {
	return &PaymentHandler{Store: s, Pix: pix, Log: log}
}

// CreateSession cria (ou recria, após expiração) a cobrança PIX do pedido.
// Retry reusa o mesmo pedido; nunca nasce pedido duplicado aqui.
func (h *PaymentHandler) CreateSession(c *fiber.Ctx) error {
	order, err := h.Store.GetByCode(c.Context(), c.Params("publicCode"))
	if err != nil {
		if store.IsNotFound(err) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Pedido não encontrado", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao carregar pedido", err)
	}

	session, err := createPixSession(c, h.Store, h.Pix, h.Log, order)
	if err != nil {
		return respondPaymentError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, session)
}

// PayLater converte o pedido para o fluxo sem cobrança: desativa a sessão,
// paymentStatus fica intocado (no-op) e o pedido segue como um pending comum.
func (h *PaymentHandler) PayLater(c *fiber.Ctx) error {
	order, err := h.Store.GetByCode(c.Context(), c.Params("publicCode"))
	if err != nil {
		if store.IsNotFound(err) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Pedido não encontrado", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao carregar pedido", err)
	}

	if order.PaymentStatus == model.PaymentPaidOnline {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Pedido já confirmado pelo provedor", nil)
	}

	if order.Session != nil && order.Session.Active {
		if err := h.Pix.CancelCharge(c.Context(), order.Session.ProviderChargeID); err != nil {
			h.Log.Warnw("não cancelou cobrança no provedor", "pedido", order.PublicCode, "err", err)
		}
	}
	if err := h.Store.DeactivateSessions(c.Context(), order, model.SessionCancelled); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao desativar sessão", err)
	}

	h.Log.Infow("pedido convertido para pagar-depois", "pedido", order.PublicCode)
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// CancelSession é administrativa: cancela a cobrança ativa.
func (h *PaymentHandler) CancelSession(c *fiber.Ctx) error {
	order, err := h.Store.GetByCode(c.Context(), c.Params("publicCode"))
	if err != nil {
		if store.IsNotFound(err) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Pedido não encontrado", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao carregar pedido", err)
	}
	if order.Session == nil || !order.Session.Active {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Pedido não tem sessão PIX ativa", nil)
	}

	if err := h.Pix.CancelCharge(c.Context(), order.Session.ProviderChargeID); err != nil {
		return respondPaymentError(c, err)
	}
	if err := h.Store.DeactivateSessions(c.Context(), order, model.SessionCancelled); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao desativar sessão", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": "Sessão cancelada"})
}

// Refund é idempotente: reinvocar sobre cobrança já estornada devolve o mesmo
// estado final sem novo efeito monetário (tolera retry após timeout). Aceita
// valor parcial.
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	input := c.Locals("input").(model.RefundInput)

	order, err := h.Store.GetByCode(c.Context(), c.Params("publicCode"))
	if err != nil {
		if store.IsNotFound(err) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Pedido não encontrado", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao carregar pedido", err)
	}

	if order.PaymentStatus == model.PaymentRefunded {
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
			"message": "Estorno já realizado",
			"data":    order,
		})
	}
	if order.PaymentStatus != model.PaymentPaidOnline && order.PaymentStatus != model.PaymentPaid {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Pedido sem pagamento a estornar", nil)
	}

	// o snapshot só carrega a sessão ativa; a cobrança de uma confirmação
	// atrasada vive em uma sessão já expirada, buscada no histórico
	var latest *model.PaymentSession
	if order.Session == nil {
		latest, err = h.Store.LatestSession(c.Context(), order.ID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao localizar a cobrança", err)
		}
	}
	chargeID, err := helper.RefundChargeID(order, latest)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict,
			"Pagamento online sem cobrança rastreável; estorne manualmente no provedor", err)
	}
	if order.PaymentStatus == model.PaymentPaidOnline {
		result, err := h.Pix.Refund(c.Context(), chargeID, input.Amount)
		if err != nil {
			return respondPaymentError(c, err)
		}
		h.Log.Infow("estorno no provedor", "pedido", order.PublicCode, "charge", chargeID, "valor", result.Amount)
	}

	order.PaymentStatus = model.PaymentRefunded
	if err := h.Store.Update(c.Context(), order); err != nil {
		return respondStoreError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

type pixWebhookEvent struct {
	Event     string `json:"event"`
	ChargeID  string `json:"charge_id"`
	Reference string `json:"reference"`
	PaidAt    string `json:"paid_at"`
}

// Webhook recebe a confirmação empurrada pelo provedor (server-to-server).
// Assinatura HMAC sobre o corpo cru; o processamento é idempotente, entrega
// duplicada responde 200 sem efeito. A confirmação é aceita em qualquer status
// não-deletado e nunca mexe no status de preparo.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	body := c.Body()
	if !h.Pix.VerifySignature(body, c.Get("X-Pix-Signature")) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Assinatura inválida", nil)
	}

	var event pixWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Payload inválido", err)
	}

	if event.Event != "charge.paid" {
		// demais eventos são reconhecidos e ignorados
		return c.JSON(fiber.Map{"received": true})
	}

	order, err := h.Store.GetByChargeID(c.Context(), event.ChargeID)
	if err != nil {
		if store.IsNotFound(err) && event.Reference != "" {
			order, err = h.Store.GetByCode(c.Context(), event.Reference)
		}
		if err != nil {
			h.Log.Warnw("webhook para cobrança desconhecida", "charge", event.ChargeID)
			return c.JSON(fiber.Map{"received": true})
		}
	}

	paidAt := time.Now()
	if event.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, event.PaidAt); err == nil {
			paidAt = t
		}
	}

	if !helper.ConfirmOnlinePayment(order, paidAt) {
		// já confirmado antes (ou pedido na lixeira): entrega duplicada é no-op
		return c.JSON(fiber.Map{"received": true})
	}

	if err := h.Store.Update(c.Context(), order); err != nil {
		var conflict *model.ConflictError
		if errors.As(err, &conflict) {
			// perdeu a corrida para uma ação do admin: rebusca e reaplica;
			// a confirmação do provedor vale em qualquer status não-deletado
			fresh, ferr := h.Store.GetByCode(c.Context(), order.PublicCode)
			if ferr == nil && helper.ConfirmOnlinePayment(fresh, paidAt) {
				if uerr := h.Store.Update(c.Context(), fresh); uerr != nil {
					h.Log.Errorw("webhook não aplicou confirmação após conflito", "pedido", fresh.PublicCode, "err", uerr)
					return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao confirmar pagamento", uerr)
				}
			}
		} else {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao confirmar pagamento", err)
		}
	}

	if err := h.Store.MarkSessionPaid(c.Context(), event.ChargeID); err != nil {
		h.Log.Warnw("não marcou sessão como paga", "charge", event.ChargeID, "err", err)
	}

	h.Log.Infow("pagamento confirmado pelo provedor", "pedido", order.PublicCode, "charge", event.ChargeID)
	return c.JSON(fiber.Map{"received": true})
}

// respondPaymentError mapeia a taxonomia de erros para a borda HTTP.
func respondPaymentError(c *fiber.Ctx, err error) error {
	var payErr *model.PaymentError
	if errors.As(err, &payErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":  "Falha no provedor de pagamento",
			"error":    payErr.Error(),
			"nextStep": "retry ou pagar-depois",
		})
	}
	var valErr *model.ValidationError
	if errors.As(err, &valErr) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Requisição inválida", valErr)
	}
	var transErr *model.TransitionError
	if errors.As(err, &transErr) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Estado do pedido não permite a operação", transErr)
	}
	return respondStoreError(c, err)
}

func respondStoreError(c *fiber.Ctx, err error) error {
	var conflict *model.ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":  "Outra atualização venceu; recarregue o pedido",
			"error":    conflict.Error(),
			"nextStep": "refresh",
		})
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro interno", err)
}
