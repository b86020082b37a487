package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job kinds dispatched by the delayed job scheduler.
const (
	JobKindPaymentReminder = "reminder-payment"
	JobKindExpireBooking   = "expired"
	JobKindNotifyEmail     = "notify-email"
	JobKindNotifySMS       = "notify-sms"
)

const JobMaxAttempts = 3

// Job is one scheduled unit of work. ID is stable per logical job so a
// re-schedule replaces the previous occurrence and a cancel can target it.
type Job struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// ReminderJobID and ExpireJobID derive the stable identifiers for a booking's
// two lifecycle jobs.
func ReminderJobID(bookingID uuid.UUID) string {
	return fmt.Sprintf("reminder-payment-%s", bookingID)
}

func ExpireJobID(bookingID uuid.UUID) string {
	return fmt.Sprintf("expired-%s", bookingID)
}

// BookingJobPayload rides on reminder and expire jobs.
type BookingJobPayload struct {
	BookingID   uuid.UUID `json:"bookingId"`
	UserID      uuid.UUID `json:"userId"`
	ExpiredAt   time.Time `json:"expiredAt"`
	PaymentLink string    `json:"paymentLink,omitempty"`
}

// EmailJobPayload carries a fully-resolved email fallback delivery.
type EmailJobPayload struct {
	To       string            `json:"to"`
	Template string            `json:"templateName"`
	Context  map[string]string `json:"context"`
}

// SMSJobPayload carries a fully-rendered SMS fallback delivery.
type SMSJobPayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// NewJob marshals payload and builds a job with zero attempts.
func NewJob(id, kind string, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job payload: %w", err)
	}
	return Job{ID: id, Kind: kind, Payload: raw}, nil
}
