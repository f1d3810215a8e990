package model

type CheckoutItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Size      string  `json:"size"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
}

// CheckoutInput é o contrato de submissão consumido do formulário manual e do
// chatbot; o núcleo não distingue a origem.
type CheckoutInput struct {
	Name            string         `json:"name" validate:"required"`
	Phone           string         `json:"phone" validate:"required"`
	OrderType       OrderType      `json:"orderType" validate:"required,oneof=delivery pickup local"`
	Address         string         `json:"address"`
	ReservationDate string         `json:"reservationDate"`
	ReservationTime string         `json:"reservationTime"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod" validate:"required,oneof=credit debit pix cash"`
	PayNow          bool           `json:"payNow"`
	ChangeNeeded    bool           `json:"changeNeeded"`
	ChangeAmount    *float64       `json:"changeAmount"`
	Notes           string         `json:"notes"`
	DeliveryFee     float64        `json:"deliveryFee" validate:"gte=0"`
	Items           []CheckoutItem `json:"items" validate:"dive"`
}

// Ação emitida pelo chatbot: variante etiquetada, validada na borda antes de
// chegar ao checkout. Payload inválido é ValidationError, nunca confiado
// parcialmente.
type ChatAction struct {
	Type        string            `json:"type" validate:"required,oneof=order reservation"`
	Order       *CheckoutInput    `json:"order"`
	Reservation *ReservationInput `json:"reservation"`
}

type ReservationInput struct {
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	ReservationDate string `json:"reservationDate" validate:"required"`
	ReservationTime string `json:"reservationTime" validate:"required"`
	Notes           string `json:"notes"`
}

type UpdateStatusInput struct {
	Status OrderStatus `json:"status" validate:"required"`
}

type UpdatePaymentStatusInput struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required,oneof=pending paid paid_online refunded"`
}

type UpdateReservationInput struct {
	ReservationDate string `json:"reservationDate" validate:"required"`
	ReservationTime string `json:"reservationTime" validate:"required"`
}

type RefundInput struct {
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
}
