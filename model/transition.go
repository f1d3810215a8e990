package model

// Tabelas de transição legais por tipo de pedido. A única autoridade sobre
// mudança de status é helper.ApplyStatusTransition; nada grava status direto.

var deliveryPickupTransitions = map[OrderStatus][]OrderStatus{
	StatusAwaitingPayment: {StatusPending, StatusCancelled},
	StatusPending:         {StatusAccepted, StatusCancelled},
	StatusAccepted:        {StatusReady, StatusCancelled},
	StatusReady:           {StatusCompleted, StatusCancelled},
	StatusCompleted:       {StatusDeleted},
	StatusCancelled:       {StatusDeleted},
	StatusDeleted:         {StatusCompleted}, // restaurar
}

var localTransitions = map[OrderStatus][]OrderStatus{
	StatusAwaitingPayment: {StatusPending, StatusCancelled},
	StatusPending:         {StatusReserved, StatusCancelled},
	StatusReserved:        {StatusCompleted, StatusCancelled},
	StatusCompleted:       {StatusDeleted},
	StatusCancelled:       {StatusDeleted},
	StatusDeleted:         {StatusCompleted},
}

func transitionTable(t OrderType) map[OrderStatus][]OrderStatus {
	if t == OrderTypeLocal {
		return localTransitions
	}
	return deliveryPickupTransitions
}

// AllowedTargets retorna os destinos legais a partir de um status.
func AllowedTargets(t OrderType, from OrderStatus) []OrderStatus {
	return transitionTable(t)[from]
}

func CanTransition(t OrderType, from, to OrderStatus) bool {
	for _, s := range AllowedTargets(t, from) {
		if s == to {
			return true
		}
	}
	return false
}
