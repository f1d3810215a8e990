package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionDeliveryPickup(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending aceita accepted", StatusPending, StatusAccepted, true},
		{"pending aceita cancelled", StatusPending, StatusCancelled, true},
		{"pending não pula para ready", StatusPending, StatusReady, false},
		{"pending não pula para completed", StatusPending, StatusCompleted, false},
		{"accepted avança para ready", StatusAccepted, StatusReady, true},
		{"accepted pode cancelar", StatusAccepted, StatusCancelled, true},
		{"ready completa", StatusReady, StatusCompleted, true},
		{"ready pode cancelar", StatusReady, StatusCancelled, true},
		{"completed vai para lixeira", StatusCompleted, StatusDeleted, true},
		{"cancelled vai para lixeira", StatusCancelled, StatusDeleted, true},
		{"completed não regride", StatusCompleted, StatusPending, false},
		{"deleted restaura para completed", StatusDeleted, StatusCompleted, true},
		{"deleted não restaura para pending", StatusDeleted, StatusPending, false},
		{"delivery nunca reserva", StatusPending, StatusReserved, false},
		{"awaiting-payment entra em pending", StatusAwaitingPayment, StatusPending, true},
		{"awaiting-payment pode cancelar", StatusAwaitingPayment, StatusCancelled, true},
		{"nada produz awaiting-payment", StatusPending, StatusAwaitingPayment, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(OrderTypeDelivery, tt.from, tt.to))
			assert.Equal(t, tt.want, CanTransition(OrderTypePickup, tt.from, tt.to))
		})
	}
}

func TestCanTransitionLocal(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending reserva", StatusPending, StatusReserved, true},
		{"pending pode cancelar", StatusPending, StatusCancelled, true},
		{"reserved completa", StatusReserved, StatusCompleted, true},
		{"reserved pode cancelar", StatusReserved, StatusCancelled, true},
		{"local nunca vira accepted", StatusPending, StatusAccepted, false},
		{"local nunca vira ready", StatusReserved, StatusReady, false},
		{"completed vai para lixeira", StatusCompleted, StatusDeleted, true},
		{"deleted restaura para completed", StatusDeleted, StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(OrderTypeLocal, tt.from, tt.to))
		})
	}
}

func TestAllowedTargets(t *testing.T) {
	assert.ElementsMatch(t,
		[]OrderStatus{StatusAccepted, StatusCancelled},
		AllowedTargets(OrderTypeDelivery, StatusPending))

	assert.ElementsMatch(t,
		[]OrderStatus{StatusReserved, StatusCancelled},
		AllowedTargets(OrderTypeLocal, StatusPending))

	assert.Empty(t, AllowedTargets(OrderTypeDelivery, OrderStatus("inexistente")))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusDeleted.IsTerminal())
}
