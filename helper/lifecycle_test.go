package helper

import (
	"testing"
	"time"

	"pizzaria_backend/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryOrder() *model.Order {
	return &model.Order{
		PublicCode: "PED-TESTE01",
		OrderType:  model.OrderTypeDelivery,
		Items: []model.OrderItem{
			{ProductID: "pizza-calabresa", Name: "Pizza Calabresa", Size: "G", UnitPrice: 40, Quantity: 2},
			{ProductID: "refrigerante", Name: "Refrigerante 2L", UnitPrice: 15, Quantity: 1},
		},
		DeliveryFee:   5,
		Total:         100,
		Status:        model.StatusPending,
		PaymentMethod: model.PaymentPix,
		PaymentStatus: model.PaymentPending,
	}
}

func localOrder() *model.Order {
	return &model.Order{
		PublicCode:    "PED-TESTE02",
		OrderType:     model.OrderTypeLocal,
		Status:        model.StatusPending,
		PaymentMethod: model.PaymentCash,
		PaymentStatus: model.PaymentPending,
	}
}

func TestComputeTotal(t *testing.T) {
	o := deliveryOrder()
	assert.Equal(t, 100.0, ComputeTotal(o.Items, o.DeliveryFee))
	assert.Equal(t, 0.0, ComputeTotal(nil, 0))
	assert.Equal(t, 5.0, ComputeTotal(nil, 5))
}

// Cenário completo do pedido de entrega pago via PIX: o provedor confirma
// antes da cozinha aceitar e o fluxo de preparo segue sem interferência.
func TestDeliveryPixScenario(t *testing.T) {
	o := deliveryOrder()
	now := time.Now()

	require.Equal(t, model.StatusPending, o.Status)
	require.Equal(t, model.PaymentPending, o.PaymentStatus)

	// provedor confirma
	require.True(t, ConfirmOnlinePayment(o, now))
	assert.Equal(t, model.PaymentPaidOnline, o.PaymentStatus)
	assert.Equal(t, model.StatusPending, o.Status, "confirmação não mexe no status")

	// cozinha toca o pedido
	require.NoError(t, ApplyStatusTransition(o, model.StatusAccepted, now))
	require.NoError(t, ApplyStatusTransition(o, model.StatusReady, now))
	require.NoError(t, ApplyStatusTransition(o, model.StatusCompleted, now))
	assert.Equal(t, model.StatusCompleted, o.Status)
	assert.Equal(t, model.PaymentPaidOnline, o.PaymentStatus)
}

func TestLocalScenario(t *testing.T) {
	o := localOrder()
	now := time.Now()

	require.NoError(t, ApplyStatusTransition(o, model.StatusReserved, now))

	// local nunca alcança ready
	err := ApplyStatusTransition(o, model.StatusReady, now)
	var transErr *model.TransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, model.StatusReserved, transErr.From)
	assert.Equal(t, model.StatusReady, transErr.To)
	assert.ElementsMatch(t, []model.OrderStatus{model.StatusCompleted, model.StatusCancelled}, transErr.Allowed)
	assert.Equal(t, model.StatusReserved, o.Status, "erro não coage o status")

	require.NoError(t, ApplyStatusTransition(o, model.StatusCompleted, now))
}

func TestPickupEstimateAttachedOnAccept(t *testing.T) {
	o := deliveryOrder()
	o.OrderType = model.OrderTypePickup
	o.DeliveryFee = 0
	o.Total = 95
	now := time.Now()

	require.NoError(t, ApplyStatusTransition(o, model.StatusAccepted, now))
	require.NotNil(t, o.PickupTimeEstimate)
	assert.WithinDuration(t, now.Add(PickupEstimate), *o.PickupTimeEstimate, time.Second)

	// delivery aceito não ganha estimativa
	d := deliveryOrder()
	require.NoError(t, ApplyStatusTransition(d, model.StatusAccepted, now))
	assert.Nil(t, d.PickupTimeEstimate)
}

func TestConfirmOnlinePaymentRules(t *testing.T) {
	now := time.Now()

	// aceita em qualquer status não-deletado
	for _, status := range []model.OrderStatus{
		model.StatusPending, model.StatusAccepted, model.StatusReady,
		model.StatusCompleted, model.StatusCancelled, model.StatusReserved,
	} {
		o := deliveryOrder()
		o.Status = status
		assert.True(t, ConfirmOnlinePayment(o, now), "status %s", status)
		assert.Equal(t, status, o.Status)
		assert.Equal(t, model.PaymentPaidOnline, o.PaymentStatus)
	}

	// lixeira não
	o := deliveryOrder()
	o.Status = model.StatusDeleted
	assert.False(t, ConfirmOnlinePayment(o, now))
	assert.Equal(t, model.PaymentPending, o.PaymentStatus)

	// idempotente
	p := deliveryOrder()
	require.True(t, ConfirmOnlinePayment(p, now))
	assert.False(t, ConfirmOnlinePayment(p, now))

	// entrega atrasada depois do estorno não ressuscita o pagamento
	r := deliveryOrder()
	r.PaymentStatus = model.PaymentRefunded
	assert.False(t, ConfirmOnlinePayment(r, now))
	assert.Equal(t, model.PaymentRefunded, r.PaymentStatus)
}

func TestRefundChargeID(t *testing.T) {
	// sessão ativa tem prioridade
	o := deliveryOrder()
	o.PaymentStatus = model.PaymentPaidOnline
	o.Session = &model.PaymentSession{ProviderChargeID: "ch_ativa", Active: true}
	id, err := RefundChargeID(o, nil)
	require.NoError(t, err)
	assert.Equal(t, "ch_ativa", id)

	// confirmação atrasada: a sessão expirou antes do webhook, o snapshot vem
	// sem sessão ativa e a cobrança é resolvida pelo histórico
	late := deliveryOrder()
	late.PaymentStatus = model.PaymentPaidOnline
	expired := &model.PaymentSession{ProviderChargeID: "ch_expirada", Status: model.SessionPaid}
	id, err = RefundChargeID(late, expired)
	require.NoError(t, err)
	assert.Equal(t, "ch_expirada", id)

	// pago online sem cobrança rastreável: nunca marcar estornado em silêncio
	orphan := deliveryOrder()
	orphan.PaymentStatus = model.PaymentPaidOnline
	_, err = RefundChargeID(orphan, nil)
	var payErr *model.PaymentError
	require.ErrorAs(t, err, &payErr)

	// pago na entrega (dinheiro/cartão): estorno é só contábil, sem cobrança
	cash := deliveryOrder()
	cash.PaymentStatus = model.PaymentPaid
	id, err = RefundChargeID(cash, nil)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestAdminPaymentTransition(t *testing.T) {
	o := deliveryOrder()

	// admin marca pago na entrega
	require.NoError(t, ApplyPaymentStatusTransition(o, model.PaymentPaid))
	assert.Equal(t, model.PaymentPaid, o.PaymentStatus)
	assert.NotNil(t, o.PaidAt)

	// paid_online nunca é setado manualmente
	err := ApplyPaymentStatusTransition(o, model.PaymentPaidOnline)
	var valErr *model.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, model.PaymentPaid, o.PaymentStatus)

	// pedido cancelado não aceita mudança manual de pagamento
	c := deliveryOrder()
	c.Status = model.StatusCancelled
	var transErr *model.TransitionError
	require.ErrorAs(t, ApplyPaymentStatusTransition(c, model.PaymentPaid), &transErr)
}

func TestSoftDeleteRestorePair(t *testing.T) {
	now := time.Now()

	// restaurar sempre cai em completed, seja qual for o status pré-exclusão
	for _, before := range []model.OrderStatus{model.StatusCompleted, model.StatusCancelled} {
		o := deliveryOrder()
		o.Status = before

		require.NoError(t, SoftDelete(o, now))
		assert.Equal(t, model.StatusDeleted, o.Status)
		require.NotNil(t, o.DeletedOn)

		require.NoError(t, Restore(o, now))
		assert.Equal(t, model.StatusCompleted, o.Status)
		assert.Nil(t, o.DeletedOn)
	}

	// pedido em preparo não vai direto para a lixeira
	o := deliveryOrder()
	var transErr *model.TransitionError
	require.ErrorAs(t, SoftDelete(o, now), &transErr)
}

func TestIntegrityHoldBlocksTransitions(t *testing.T) {
	o := deliveryOrder()
	o.Total = 123.45 // diverge do derivado (100)
	now := time.Now()

	err := ApplyStatusTransition(o, model.StatusAccepted, now)
	var intErr *model.IntegrityError
	require.ErrorAs(t, err, &intErr)
	assert.Equal(t, 123.45, intErr.Stored)
	assert.Equal(t, 100.0, intErr.Derived)
	assert.True(t, o.IntegrityHold)
	assert.Equal(t, model.StatusPending, o.Status, "total nunca é auto-corrigido")

	// bloqueado até revisão manual, inclusive para pagamento
	require.ErrorAs(t, ApplyStatusTransition(o, model.StatusCancelled, now), &intErr)
	require.ErrorAs(t, ApplyPaymentStatusTransition(o, model.PaymentPaid), &intErr)
}

func TestIntegrityToleratesCentavos(t *testing.T) {
	o := deliveryOrder()
	o.Items = []model.OrderItem{{ProductID: "p", Name: "p", UnitPrice: 33.335, Quantity: 3}}
	o.DeliveryFee = 0
	o.Total = 100.01 // ComputeTotal arredonda para 100.01
	require.NoError(t, CheckIntegrity(o))
}
