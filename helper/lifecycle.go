package helper

import (
	"errors"
	"math"
	"time"

	"pizzaria_backend/model"
)

// Estimativa fixa de retirada anexada junto com a aceitação do pedido pickup.
const PickupEstimate = 30 * time.Minute

// ComputeTotal deriva o total do pedido: Σ(preço × quantidade) + taxa de entrega.
func ComputeTotal(items []model.OrderItem, deliveryFee float64) float64 {
	total := deliveryFee
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	// centavos exatos
	return math.Round(total*100) / 100
}

// CheckIntegrity re-deriva o total e compara com o gravado. Divergência é erro
// de integridade de dados, não estado de negócio: bloqueia o pedido para
// revisão manual e nunca é corrigida silenciosamente.
func CheckIntegrity(o *model.Order) error {
	derived := ComputeTotal(o.Items, o.DeliveryFee)
	if math.Abs(derived-o.Total) > 0.009 {
		o.IntegrityHold = true
		return &model.IntegrityError{PublicCode: o.PublicCode, Stored: o.Total, Derived: derived}
	}
	return nil
}

// ApplyStatusTransition valida contra a tabela do tipo de pedido e aplica a
// mudança em memória; a persistência (com checagem de versão) fica no store.
// Pickup aceito ganha a estimativa de retirada atomicamente.
func ApplyStatusTransition(o *model.Order, to model.OrderStatus, now time.Time) error {
	if o.IntegrityHold {
		return &model.IntegrityError{
			PublicCode: o.PublicCode,
			Stored:     o.Total,
			Derived:    ComputeTotal(o.Items, o.DeliveryFee),
		}
	}
	if err := CheckIntegrity(o); err != nil {
		return err
	}

	if !model.CanTransition(o.OrderType, o.Status, to) {
		return &model.TransitionError{
			OrderType: o.OrderType,
			From:      o.Status,
			To:        to,
			Allowed:   model.AllowedTargets(o.OrderType, o.Status),
		}
	}

	if to == model.StatusAccepted && o.OrderType == model.OrderTypePickup {
		estimate := now.Add(PickupEstimate)
		o.PickupTimeEstimate = &estimate
	}
	if to == model.StatusDeleted {
		o.DeletedOn = &now
	}
	if o.Status == model.StatusDeleted && to == model.StatusCompleted {
		o.DeletedOn = nil
	}

	o.Status = to
	return nil
}

// ApplyPaymentStatusTransition é o caminho do admin: qualquer valor em pedido
// não-deletado e não-cancelado, exceto paid_online, que é exclusivo do
// provedor. Refund só via operação de reembolso.
func ApplyPaymentStatusTransition(o *model.Order, to model.PaymentStatus) error {
	if o.IntegrityHold {
		return &model.IntegrityError{
			PublicCode: o.PublicCode,
			Stored:     o.Total,
			Derived:    ComputeTotal(o.Items, o.DeliveryFee),
		}
	}
	if o.Status == model.StatusDeleted || o.Status == model.StatusCancelled {
		return &model.TransitionError{
			OrderType: o.OrderType,
			From:      o.Status,
			To:        o.Status,
			Allowed:   nil,
		}
	}
	if to == model.PaymentPaidOnline {
		return &model.ValidationError{
			Field:  "paymentStatus",
			Reason: "paid_online é reservado à confirmação do provedor",
		}
	}

	o.PaymentStatus = to
	if to != model.PaymentPaid {
		return nil
	}
	now := time.Now()
	o.PaidAt = &now
	return nil
}

// ConfirmOnlinePayment é o caminho do provedor (webhook): aceito em qualquer
// status não-deletado (confirmação de pagamento e status de preparo são eixos
// ortogonais) e nunca mexe no status. Idempotente.
func ConfirmOnlinePayment(o *model.Order, paidAt time.Time) (changed bool) {
	if o.Status == model.StatusDeleted {
		return false
	}
	if o.PaymentStatus == model.PaymentPaidOnline {
		return false
	}
	// cobrança já confirmada e estornada; entrega atrasada não ressuscita o pagamento
	if o.PaymentStatus == model.PaymentRefunded {
		return false
	}
	o.PaymentStatus = model.PaymentPaidOnline
	o.PaidAt = &paidAt
	return true
}

// RefundChargeID resolve qual cobrança estornar: a sessão ativa quando existe,
// senão a mais recente do histórico. A sessão expira localmente antes de uma
// confirmação atrasada chegar, então o estorno não pode depender de active.
// Pedido pago online sem cobrança rastreável é erro: marcar refunded sem
// acionar o provedor deixaria o dinheiro retido.
func RefundChargeID(o *model.Order, latest *model.PaymentSession) (string, error) {
	if o.Session != nil && o.Session.ProviderChargeID != "" {
		return o.Session.ProviderChargeID, nil
	}
	if latest != nil && latest.ProviderChargeID != "" {
		return latest.ProviderChargeID, nil
	}
	if o.PaymentStatus == model.PaymentPaidOnline {
		return "", &model.PaymentError{Op: "refund", Err: errors.New("pagamento online sem cobrança rastreável")}
	}
	return "", nil
}

// SoftDelete move o pedido para a lixeira (reversível).
func SoftDelete(o *model.Order, now time.Time) error {
	return ApplyStatusTransition(o, model.StatusDeleted, now)
}

// Restore tira da lixeira; sempre volta como completed, independente do status
// anterior à exclusão.
func Restore(o *model.Order, now time.Time) error {
	return ApplyStatusTransition(o, model.StatusCompleted, now)
}
