package model

import "time"

const (
	SessionPending   = "PENDING"
	SessionPaid      = "PAID"
	SessionExpired   = "EXPIRED"
	SessionCancelled = "CANCELLED"
)

// PaymentSession é a cobrança PIX hospedada no provedor, atrelada a uma tentativa
// de pagamento. No máximo uma sessão ativa por pedido; criar nova invalida a
// anterior (a linha antiga fica com active=false para histórico).
type PaymentSession struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	OrderID          uint      `gorm:"index" json:"-"`
	ProviderChargeID string    `gorm:"size:80;index" json:"providerChargeId"`
	QRCodePayload    string    `json:"qrCodePayload"`
	QRCodeImage      string    `json:"qrCodeImage"` // data URI PNG base64
	CopyPasteCode    string    `json:"copyPasteCode"`
	DeepLink         string    `json:"deepLink"`
	TicketURL        *string   `json:"ticketUrl,omitempty"`
	Status           string    `gorm:"size:15;default:PENDING" json:"status"`
	Active           bool      `gorm:"index" json:"active"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// Expirado em relação ao relógio local; o provedor continua autoritativo e
// confirmação que chegar depois ainda é honrada.
func (s *PaymentSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DueForExpiry diz se a varredura deve encerrar a sessão: apenas ativa, ainda
// pendente e com o prazo vencido. Sessão paga nunca expira, e o paymentStatus
// do pedido não entra na decisão.
func (s *PaymentSession) DueForExpiry(now time.Time) bool {
	return s.Active && s.Status == SessionPending && s.Expired(now)
}

type RefundResult struct {
	ChargeID string  `json:"chargeId"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}
