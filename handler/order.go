package handler

import (
	"errors"
	"time"

	"pizzaria_backend/helper"
	"pizzaria_backend/model"
	"pizzaria_backend/store"
	"pizzaria_backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Store *store.OrderStore
	Mail  *Mailer
	Log   *zap.SugaredLogger
}

func NewOrderHandler(s *store.OrderStore, mail *Mailer, log *zap.SugaredLogger) *OrderHandler {
	return &OrderHandler{Store: s, Mail: mail, Log: log}
}

// ListActive lista os pedidos fora da lixeira para o console do admin.
func (h *OrderHandler) ListActive(c *fiber.Ctx) error {
	orders, err := h.Store.ListActive(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao listar pedidos", err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, orders)
}

func (h *OrderHandler) ListTrash(c *fiber.Ctx) error {
	orders, err := h.Store.ListTrash(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao listar lixeira", err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, orders)
}

func (h *OrderHandler) GetByCode(c *fiber.Ctx) error {
	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// UpdateStatus aplica a transição validada pela máquina de estados; transição
// ilegal volta como erro tipado, nunca coagida.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	input := c.Locals("input").(model.UpdateStatusInput)

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	wasHeld := order.IntegrityHold
	if err := helper.ApplyStatusTransition(order, input.Status, time.Now()); err != nil {
		h.persistNewHold(c, order, wasHeld, err)
		return respondLifecycleError(c, h.Log, err)
	}
	if err := h.Store.Update(c.Context(), order); err != nil {
		return respondStoreError(c, err)
	}

	h.Log.Infow("status atualizado", "pedido", order.PublicCode, "status", order.Status)

	if order.Status == model.StatusCancelled {
		go h.Mail.SendCancellationMail(*order)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// UpdatePaymentStatus é o caminho manual do admin (dinheiro/cartão na entrega).
// paid_online é exclusivo do provedor e refunded só sai pela operação de
// reembolso.
func (h *OrderHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	input := c.Locals("input").(model.UpdatePaymentStatusInput)

	if input.PaymentStatus == model.PaymentRefunded {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Use a operação de reembolso", nil)
	}

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	wasHeld := order.IntegrityHold
	if err := helper.ApplyPaymentStatusTransition(order, input.PaymentStatus); err != nil {
		h.persistNewHold(c, order, wasHeld, err)
		return respondLifecycleError(c, h.Log, err)
	}
	if err := h.Store.Update(c.Context(), order); err != nil {
		return respondStoreError(c, err)
	}

	h.Log.Infow("pagamento atualizado", "pedido", order.PublicCode, "pagamento", order.PaymentStatus)
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// UpdateReservation ajusta data/hora da reserva de pedidos locais.
func (h *OrderHandler) UpdateReservation(c *fiber.Ctx) error {
	input := c.Locals("input").(model.UpdateReservationInput)

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}
	if order.OrderType != model.OrderTypeLocal {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Pedido não é de reserva local", nil)
	}
	if order.Status == model.StatusDeleted {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Pedido está na lixeira", nil)
	}

	order.ReservationDate = &input.ReservationDate
	order.ReservationTime = &input.ReservationTime
	if err := h.Store.Update(c.Context(), order); err != nil {
		return respondStoreError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// SoftDelete move para a lixeira (reversível).
func (h *OrderHandler) SoftDelete(c *fiber.Ctx) error {
	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if err := helper.SoftDelete(order, time.Now()); err != nil {
		return respondLifecycleError(c, h.Log, err)
	}
	if err := h.Store.Update(c.Context(), order); err != nil {
		return respondStoreError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": "Pedido movido para a lixeira"})
}

// Restore tira da lixeira; sempre volta como completed.
func (h *OrderHandler) Restore(c *fiber.Ctx) error {
	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if err := helper.Restore(order, time.Now()); err != nil {
		return respondLifecycleError(c, h.Log, err)
	}
	if err := h.Store.Update(c.Context(), order); err != nil {
		return respondStoreError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// PermanentDelete só vale para pedido já na lixeira.
func (h *OrderHandler) PermanentDelete(c *fiber.Ctx) error {
	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if err := h.Store.PermanentDelete(c.Context(), order); err != nil {
		var transErr *model.TransitionError
		if errors.As(err, &transErr) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Só é possível excluir de vez um pedido na lixeira", transErr)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao excluir pedido", err)
	}

	h.Log.Infow("pedido excluído permanentemente", "pedido", order.PublicCode)
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": "Pedido excluído permanentemente"})
}

// persistNewHold grava o bloqueio de integridade recém-detectado para que
// todas as sessões (admin e cliente) vejam o pedido bloqueado.
func (h *OrderHandler) persistNewHold(c *fiber.Ctx, order *model.Order, wasHeld bool, err error) {
	var intErr *model.IntegrityError
	if !errors.As(err, &intErr) || wasHeld || !order.IntegrityHold {
		return
	}
	if uerr := h.Store.Update(c.Context(), order); uerr != nil {
		h.Log.Errorw("não persistiu bloqueio de integridade", "pedido", order.PublicCode, "err", uerr)
	}
}

func (h *OrderHandler) loadOrder(c *fiber.Ctx) (*model.Order, error) {
	order, err := h.Store.GetByCode(c.Context(), c.Params("publicCode"))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, utils.ErrorResponse(c, fiber.StatusNotFound, "Pedido não encontrado", err)
		}
		return nil, utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro ao carregar pedido", err)
	}
	return order, nil
}

// respondLifecycleError mapeia erros da máquina de estados para a borda HTTP.
func respondLifecycleError(c *fiber.Ctx, log *zap.SugaredLogger, err error) error {
	var transErr *model.TransitionError
	if errors.As(err, &transErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message":   "Transição de status não permitida",
			"error":     transErr.Error(),
			"attempted": transErr.To,
			"allowed":   transErr.Allowed,
		})
	}
	var intErr *model.IntegrityError
	if errors.As(err, &intErr) {
		// fatal para este pedido: fica bloqueado até revisão manual
		log.Errorw("divergência de total detectada", "pedido", intErr.PublicCode,
			"gravado", intErr.Stored, "derivado", intErr.Derived)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Pedido bloqueado por divergência de total; revisão manual necessária",
			"error":   intErr.Error(),
		})
	}
	var valErr *model.ValidationError
	if errors.As(err, &valErr) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Requisição inválida", valErr)
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Erro interno", err)
}
