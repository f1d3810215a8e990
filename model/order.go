package model

import "time"

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
	OrderTypeLocal    OrderType = "local"
)

type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusAccepted        OrderStatus = "accepted"
	StatusReserved        OrderStatus = "reserved"
	StatusReady           OrderStatus = "ready"
	StatusCompleted       OrderStatus = "completed"
	StatusCancelled       OrderStatus = "cancelled"
	StatusDeleted         OrderStatus = "deleted"
	StatusAwaitingPayment OrderStatus = "awaiting-payment"
)

type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
	PaymentCash   PaymentMethod = "cash"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentPaid       PaymentStatus = "paid"
	PaymentPaidOnline PaymentStatus = "paid_online"
	PaymentRefunded   PaymentStatus = "refunded"
)

type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PublicCode  string `gorm:"unique;size:20" json:"publicCode"` // PED-XXXXXXXX
	OrderNumber int64  `json:"orderNumber"`                      // sequencial do dia, exibido ao cliente
	Version     uint   `gorm:"default:1" json:"version"`

	CustomerName    string    `json:"customerName"`
	Phone           string    `json:"phone"`
	OrderType       OrderType `gorm:"size:10" json:"orderType"`
	Address         *string   `json:"address,omitempty"`
	ReservationDate *string   `json:"reservationDate,omitempty"` // AAAA-MM-DD
	ReservationTime *string   `json:"reservationTime,omitempty"` // HH:MM

	Items       []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	DeliveryFee float64     `json:"deliveryFee"`
	Total       float64     `json:"total"`

	Status        OrderStatus   `gorm:"size:20" json:"status"`
	PaymentMethod PaymentMethod `gorm:"size:10" json:"paymentMethod"`
	PaymentStatus PaymentStatus `gorm:"size:15" json:"paymentStatus"`

	// Sessão PIX ativa (no máximo uma por pedido)
	Session *PaymentSession `gorm:"foreignKey:OrderID" json:"paymentSession,omitempty"`

	PickupTimeEstimate *time.Time `json:"pickupTimeEstimate,omitempty"`
	ChangeNeeded       bool       `json:"changeNeeded"`
	ChangeAmount       *float64   `json:"changeAmount,omitempty"`
	Notes              *string    `json:"notes,omitempty"`

	// Divergência de total detectada: pedido bloqueado até revisão manual
	IntegrityHold bool `json:"integrityHold"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
	DeletedOn *time.Time `json:"deletedOn,omitempty"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	OrderID   uint    `gorm:"index" json:"-"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Size      string  `json:"size,omitempty"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// IsTerminal indica se o status não admite mais fluxo normal (apenas lixeira).
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}
