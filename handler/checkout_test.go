package handler

import (
	"testing"

	"pizzaria_backend/model"
	"pizzaria_backend/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderSameInputSameOrder(t *testing.T) {
	input := model.CheckoutInput{
		Name:          "Ana",
		Phone:         "11 99999-0000",
		OrderType:     model.OrderTypeDelivery,
		Address:       "Rua das Flores, 10",
		PaymentMethod: model.PaymentPix,
		DeliveryFee:   8,
		Items: []model.CheckoutItem{
			{ProductID: "pizza-quatro-queijos", Name: "Pizza Quatro Queijos", Size: "G", UnitPrice: 55, Quantity: 1},
		},
	}

	manual, err := buildOrder(input)
	require.NoError(t, err)
	viaChat, err := buildOrder(input)
	require.NoError(t, err)

	assert.Equal(t, manual, viaChat, "formulário e chatbot produzem o mesmo pedido para o mesmo conteúdo")
	assert.Equal(t, 63.0, manual.Total)
	assert.Equal(t, model.StatusPending, manual.Status)
	assert.Equal(t, model.PaymentPending, manual.PaymentStatus)
}

func TestBuildOrderZeroesFeeForNonDelivery(t *testing.T) {
	input := model.CheckoutInput{
		Name:          "Carla",
		Phone:         "11 97777-2222",
		OrderType:     model.OrderTypePickup,
		PaymentMethod: model.PaymentCash,
		DeliveryFee:   8,
		Items: []model.CheckoutItem{
			{ProductID: "pizza-calabresa", Name: "Pizza Calabresa", UnitPrice: 40, Quantity: 2},
		},
	}

	order, err := buildOrder(input)
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.DeliveryFee, "taxa de entrega só em pedidos delivery")
	assert.Equal(t, 80.0, order.Total)
}

func TestReservationToCheckout(t *testing.T) {
	r := model.ReservationInput{
		Name:            "Bruno",
		Phone:           "11 98888-1111",
		ReservationDate: "2026-09-05",
		ReservationTime: "20:00",
		Notes:           "mesa perto da janela",
	}

	input := reservationToCheckout(r)
	assert.Equal(t, model.OrderTypeLocal, input.OrderType)
	assert.Equal(t, model.PaymentCash, input.PaymentMethod)
	assert.False(t, input.PayNow)
	require.NoError(t, validate.CheckoutRules(&input), "a reserva convertida passa pelo mesmo crivo do formulário")

	order, err := buildOrder(input)
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Equal(t, 0.0, order.Total)
	require.NotNil(t, order.ReservationDate)
	assert.Equal(t, "2026-09-05", *order.ReservationDate)
	require.NotNil(t, order.ReservationTime)
	assert.Equal(t, "20:00", *order.ReservationTime)
}
