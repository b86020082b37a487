package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle event topics. A topic is published exactly once per committed
// state transition; subscribers must tolerate redelivery-free fire-and-forget
// semantics (a crashed handler is not replayed).
const (
	TopicBookingCreated   = "booking.created"
	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingRejected  = "booking.rejected"
	TopicBookingCanceled  = "booking.canceled"
	TopicPaymentSucceeded = "payment.succeeded"
	TopicPaymentFailed    = "payment.failed"
	TopicPaymentReminder  = "payment.reminder"
)

// Topics lists every lifecycle topic, in no particular order.
func Topics() []string {
	return []string{
		TopicBookingCreated,
		TopicBookingConfirmed,
		TopicBookingRejected,
		TopicBookingCanceled,
		TopicPaymentSucceeded,
		TopicPaymentFailed,
		TopicPaymentReminder,
	}
}

type BookingCreatedEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	SpaceID   uuid.UUID `json:"spaceId"`
	UserID    uuid.UUID `json:"userId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type BookingConfirmedEvent struct {
	BookingID   uuid.UUID `json:"bookingId"`
	SpaceID     uuid.UUID `json:"spaceId"`
	UserID      uuid.UUID `json:"userId"`
	ExpiredAt   time.Time `json:"expiredAt"`
	PaymentLink string    `json:"paymentLink,omitempty"`
}

type BookingRejectedEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	SpaceID   uuid.UUID `json:"spaceId"`
	UserID    uuid.UUID `json:"userId"`
	Reason    string    `json:"reason"`
}

type BookingCanceledEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	SpaceID   uuid.UUID `json:"spaceId"`
	UserID    uuid.UUID `json:"userId"`
}

type PaymentSucceededEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	SpaceID   uuid.UUID `json:"spaceId"`
	UserID    uuid.UUID `json:"userId"`
	OrderCode int64     `json:"orderCode"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
}

type PaymentFailedEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	SpaceID   uuid.UUID `json:"spaceId"`
	UserID    uuid.UUID `json:"userId"`
	Reason    string    `json:"reason"`
}

type PaymentReminderEvent struct {
	BookingID   uuid.UUID `json:"bookingId"`
	UserID      uuid.UUID `json:"userId"`
	ExpiredAt   time.Time `json:"expiredAt"`
	PaymentLink string    `json:"paymentLink,omitempty"`
}
