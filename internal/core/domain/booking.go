package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCanceled  BookingStatus = "CANCELED"
	BookingRejected  BookingStatus = "REJECTED"
)

// IsTerminal reports whether no further lifecycle transition may leave s.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingCanceled, BookingRejected:
		return true
	}
	return false
}

// Booking reserves one space for the contiguous range [StartTime, EndTime).
// OrderCode is the numeric identifier the payment provider echoes back in
// webhook payloads.
type Booking struct {
	ID         uuid.UUID
	SpaceID    uuid.UUID
	UserID     uuid.UUID
	OrderCode  int64
	StartTime  time.Time
	EndTime    time.Time
	TotalPrice int64
	Status     BookingStatus
	CreatedAt  time.Time
	ExpiredAt  *time.Time
}
