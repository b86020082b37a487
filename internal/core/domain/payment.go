package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment is one-to-one with a confirmed booking. CheckoutURL is the
// provider-hosted payment page issued when the booking was confirmed.
type Payment struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	OrderCode   int64
	Amount      int64
	Method      string
	Status      PaymentStatus
	CheckoutURL string
	CreatedAt   time.Time
	PaidAt      *time.Time
}
