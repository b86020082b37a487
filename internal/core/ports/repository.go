package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ntdung97/spacebook/internal/core/domain"
)

type BookingRepository interface {
	// Create inserts a PENDING booking, failing with domain-level overlap
	// error when the space already holds a PENDING/CONFIRMED booking over
	// an intersecting range.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Booking, error)

	// Confirm moves PENDING -> CONFIRMED and stamps the payment deadline.
	// Returns false when the booking was not PENDING.
	Confirm(ctx context.Context, bookingID uuid.UUID, expiredAt time.Time) (bool, error)

	// UpdateStatusFrom performs a state-conditional transition and reports
	// whether a row actually moved.
	UpdateStatusFrom(ctx context.Context, bookingID uuid.UUID, from, to domain.BookingStatus) (bool, error)

	// CompletePaid atomically moves the booking CONFIRMED -> COMPLETED and
	// its payment PENDING -> PAID in one transaction. Returns false without
	// error when the booking is not CONFIRMED (idempotent no-op).
	CompletePaid(ctx context.Context, bookingID uuid.UUID, method string, paidAt time.Time) (bool, error)

	// ExpireUnpaid atomically moves the booking CONFIRMED -> CANCELED and
	// its payment PENDING -> FAILED. Returns false when the booking already
	// left CONFIRMED.
	ExpireUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error)
	// MarkFailedByOrderCode records a failed provider attempt without
	// touching the booking.
	MarkFailedByOrderCode(ctx context.Context, orderCode int64) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByReceiver(ctx context.Context, receiverID uuid.UUID, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, receiverID uuid.UUID) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
}

// Directory resolves notification receivers and their fallback contacts.
// Venue/space/user CRUD itself lives outside this service.
type Directory interface {
	SpaceManagers(ctx context.Context, spaceID uuid.UUID) ([]uuid.UUID, error)
	Operators(ctx context.Context) ([]uuid.UUID, error)
	Contact(ctx context.Context, userID uuid.UUID) (*domain.Contact, error)
}
