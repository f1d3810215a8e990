package model

import "fmt"

// TransitionError: transição de status ilegal; nunca coagida silenciosamente.
type TransitionError struct {
	OrderType OrderType
	From      OrderStatus
	To        OrderStatus
	Allowed   []OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transição ilegal (%s): %s → %s, permitidas: %v", e.OrderType, e.From, e.To, e.Allowed)
}

// ValidationError: entrada malformada ou incompleta, corrigível pelo usuário.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validação: %s - %s", e.Field, e.Reason)
}

// PaymentError: falha na chamada ao provedor ou sessão expirada; o pedido
// subjacente nunca é perdido, o chamador oferece retry ou pagar-depois.
type PaymentError struct {
	Op  string
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("provedor pix: %s: %v", e.Op, e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// ConflictError: escrita concorrente perdeu a corrida de versão; o chamador
// deve rebuscar o snapshot autoritativo, nunca reaplicar a intenção velha.
type ConflictError struct {
	PublicCode string
	Version    uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflito de versão no pedido %s (versão %d desatualizada)", e.PublicCode, e.Version)
}

// IntegrityError: total armazenado diverge do derivado; fatal para o pedido,
// exige revisão manual, nunca auto-corrigido.
type IntegrityError struct {
	PublicCode string
	Stored     float64
	Derived    float64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integridade do pedido %s: total gravado %.2f difere do derivado %.2f", e.PublicCode, e.Stored, e.Derived)
}
