package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports/mocks"
	"github.com/ntdung97/spacebook/internal/core/services"
)

const reminderLead = 10 * time.Minute

type lifecycleFixture struct {
	bookings *mocks.BookingRepository
	payments *mocks.PaymentRepository
	jobs     *mocks.JobScheduler
	bus      *mocks.EventBus
	provider *mocks.PaymentProvider
	svc      *services.LifecycleService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	f := &lifecycleFixture{
		bookings: mocks.NewBookingRepository(t),
		payments: mocks.NewPaymentRepository(t),
		jobs:     mocks.NewJobScheduler(t),
		bus:      mocks.NewEventBus(t),
		provider: mocks.NewPaymentProvider(t),
	}

	svc, err := services.NewLifecycleService(f.bookings, f.payments, f.jobs, f.bus, f.provider, reminderLead)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func confirmedBooking(id uuid.UUID) *domain.Booking {
	return &domain.Booking{
		ID:         id,
		SpaceID:    uuid.New(),
		UserID:     uuid.New(),
		OrderCode:  42,
		TotalPrice: 100000,
		Status:     domain.BookingConfirmed,
	}
}

func TestConfirm_SchedulesReminderAndExpireJobs(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	expiredAt := time.Now().Add(time.Hour)

	f.bookings.On("Confirm", mock.Anything, bookingID, expiredAt).Return(true, nil)
	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)
	f.provider.On("CreatePaymentLink", mock.Anything, booking.OrderCode, booking.TotalPrice, mock.AnythingOfType("string")).
		Return("https://pay.example/42", nil)
	f.payments.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.BookingID == bookingID && p.Status == domain.PaymentPending && p.Amount == booking.TotalPrice
	})).Return(nil)

	// Reminder fires lead time before expiry, expire fires at expiry.
	f.jobs.On("Schedule", mock.Anything, mock.MatchedBy(func(j domain.Job) bool {
		return j.ID == fmt.Sprintf("reminder-payment-%s", bookingID) && j.Kind == domain.JobKindPaymentReminder
	}), mock.MatchedBy(func(d time.Duration) bool {
		return d > 49*time.Minute && d <= 50*time.Minute
	})).Return(nil)
	f.jobs.On("Schedule", mock.Anything, mock.MatchedBy(func(j domain.Job) bool {
		return j.ID == fmt.Sprintf("expired-%s", bookingID) && j.Kind == domain.JobKindExpireBooking
	}), mock.MatchedBy(func(d time.Duration) bool {
		return d > 59*time.Minute && d <= time.Hour
	})).Return(nil)

	f.bus.On("Publish", mock.Anything, domain.TopicBookingConfirmed, mock.MatchedBy(func(evt any) bool {
		e, ok := evt.(domain.BookingConfirmedEvent)
		return ok && e.BookingID == bookingID && e.PaymentLink == "https://pay.example/42"
	})).Return(nil)

	outcome, err := f.svc.Confirm(ctx, bookingID, expiredAt)

	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeApplied, outcome)
}

func TestConfirm_ShortExpirySkipsReminder(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	// Inside the reminder lead window: only the expire job makes sense.
	expiredAt := time.Now().Add(5 * time.Minute)

	f.bookings.On("Confirm", mock.Anything, bookingID, expiredAt).Return(true, nil)
	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)
	f.provider.On("CreatePaymentLink", mock.Anything, booking.OrderCode, booking.TotalPrice, mock.AnythingOfType("string")).
		Return("", nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)
	f.jobs.On("Schedule", mock.Anything, mock.MatchedBy(func(j domain.Job) bool {
		return j.Kind == domain.JobKindExpireBooking
	}), mock.Anything).Return(nil)
	f.bus.On("Publish", mock.Anything, domain.TopicBookingConfirmed, mock.Anything).Return(nil)

	outcome, err := f.svc.Confirm(ctx, bookingID, expiredAt)

	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeApplied, outcome)
	f.jobs.AssertNumberOfCalls(t, "Schedule", 1)
}

func TestHandlePaid_CompletesOnceAndCancelsJobs(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	booking.Status = domain.BookingCompleted

	f.bookings.On("CompletePaid", mock.Anything, bookingID, "bank_transfer", mock.AnythingOfType("time.Time")).
		Return(true, nil)
	f.jobs.On("Cancel", mock.Anything, fmt.Sprintf("reminder-payment-%s", bookingID)).Return(nil)
	f.jobs.On("Cancel", mock.Anything, fmt.Sprintf("expired-%s", bookingID)).Return(nil)
	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)
	f.bus.On("Publish", mock.Anything, domain.TopicPaymentSucceeded, mock.MatchedBy(func(evt any) bool {
		e, ok := evt.(domain.PaymentSucceededEvent)
		return ok && e.BookingID == bookingID && e.Amount == 100000 && e.OrderCode == 42
	})).Return(nil)

	outcome, err := f.svc.HandlePaid(ctx, bookingID, 100000, "bank_transfer")

	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeApplied, outcome)
	f.bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestHandlePaid_DuplicateDeliveryIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	booking.Status = domain.BookingCompleted

	f.bookings.On("CompletePaid", mock.Anything, bookingID, "bank_transfer", mock.AnythingOfType("time.Time")).
		Return(false, nil)
	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)

	outcome, err := f.svc.HandlePaid(ctx, bookingID, 100000, "bank_transfer")

	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeAlreadyDone, outcome)
	// No event, no job cancellation: nothing transitioned.
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	f.jobs.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestHandlePaid_UnknownBooking(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()

	f.bookings.On("CompletePaid", mock.Anything, bookingID, "card", mock.AnythingOfType("time.Time")).
		Return(false, nil)
	f.bookings.On("GetByID", mock.Anything, bookingID).Return(nil, domain.ErrNotFound)

	outcome, err := f.svc.HandlePaid(ctx, bookingID, 5000, "card")

	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeNotFound, outcome)
}

func TestHandleExpired_StaleJobIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()

	// Payment raced ahead: the booking already left CONFIRMED.
	f.bookings.On("ExpireUnpaid", mock.Anything, bookingID).Return(false, nil)

	err := f.svc.HandleExpired(ctx, bookingID)

	assert.NoError(t, err)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleExpired_ReleasesUnpaidBooking(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	booking.Status = domain.BookingCanceled

	f.bookings.On("ExpireUnpaid", mock.Anything, bookingID).Return(true, nil)
	f.jobs.On("Cancel", mock.Anything, fmt.Sprintf("reminder-payment-%s", bookingID)).Return(nil)
	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)
	f.bus.On("Publish", mock.Anything, domain.TopicPaymentFailed, mock.MatchedBy(func(evt any) bool {
		e, ok := evt.(domain.PaymentFailedEvent)
		return ok && e.BookingID == bookingID
	})).Return(nil)

	err := f.svc.HandleExpired(ctx, bookingID)

	assert.NoError(t, err)
}

func TestCancel_RemovesBothJobs(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)

	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)
	f.bookings.On("UpdateStatusFrom", mock.Anything, bookingID, domain.BookingConfirmed, domain.BookingCanceled).
		Return(true, nil)
	f.jobs.On("Cancel", mock.Anything, fmt.Sprintf("reminder-payment-%s", bookingID)).Return(nil)
	f.jobs.On("Cancel", mock.Anything, fmt.Sprintf("expired-%s", bookingID)).Return(nil)
	f.bus.On("Publish", mock.Anything, domain.TopicBookingCanceled, mock.Anything).Return(nil)

	outcome, err := f.svc.Cancel(ctx, bookingID)

	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeApplied, outcome)
	f.jobs.AssertNumberOfCalls(t, "Cancel", 2)
}

func TestCancel_AlreadyCanceled(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	booking.Status = domain.BookingCanceled

	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)

	outcome, err := f.svc.Cancel(ctx, bookingID)

	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeAlreadyDone, outcome)
}

func TestHandleReminder_PaidBookingStaysQuiet(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	payment := &domain.Payment{BookingID: bookingID, Status: domain.PaymentPaid}

	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)
	f.payments.On("GetByBookingID", mock.Anything, bookingID).Return(payment, nil)

	err := f.svc.HandleReminder(ctx, bookingID)

	assert.NoError(t, err)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleReminder_UnpaidBookingPublishes(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	expiredAt := time.Now().Add(10 * time.Minute)
	booking.ExpiredAt = &expiredAt
	payment := &domain.Payment{BookingID: bookingID, Status: domain.PaymentPending, CheckoutURL: "https://pay.example/42"}

	f.bookings.On("GetByID", mock.Anything, bookingID).Return(booking, nil)
	f.payments.On("GetByBookingID", mock.Anything, bookingID).Return(payment, nil)
	f.bus.On("Publish", mock.Anything, domain.TopicPaymentReminder, mock.MatchedBy(func(evt any) bool {
		e, ok := evt.(domain.PaymentReminderEvent)
		return ok && e.PaymentLink == "https://pay.example/42"
	})).Return(nil)

	err := f.svc.HandleReminder(ctx, bookingID)

	assert.NoError(t, err)
}

func TestHandleWebhookPaid_ResolvesOrderCode(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	bookingID := uuid.New()
	booking := confirmedBooking(bookingID)
	completed := *booking
	completed.Status = domain.BookingCompleted

	f.bookings.On("GetByOrderCode", mock.Anything, int64(42)).Return(booking, nil)
	f.bookings.On("CompletePaid", mock.Anything, bookingID, "provider", mock.AnythingOfType("time.Time")).
		Return(true, nil)
	f.jobs.On("Cancel", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	f.bookings.On("GetByID", mock.Anything, bookingID).Return(&completed, nil)
	f.bus.On("Publish", mock.Anything, domain.TopicPaymentSucceeded, mock.Anything).Return(nil)

	err := f.svc.HandleWebhookPaid(ctx, 42, 100000, "provider")

	assert.NoError(t, err)
}

func TestHandleWebhookPaid_UnknownOrderCodeIgnored(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	f.bookings.On("GetByOrderCode", mock.Anything, int64(99)).Return(nil, domain.ErrNotFound)

	err := f.svc.HandleWebhookPaid(ctx, 99, 100000, "provider")

	assert.NoError(t, err)
}

func TestCreateBooking_OverlapRejected(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(domain.ErrOverlap)

	booking, err := f.svc.CreateBooking(ctx, services.CreateBookingInput{
		UserID:     uuid.New(),
		SpaceID:    uuid.New(),
		StartTime:  time.Now().Add(time.Hour),
		EndTime:    time.Now().Add(2 * time.Hour),
		TotalPrice: 50000,
	})

	assert.ErrorIs(t, err, domain.ErrOverlap)
	assert.Nil(t, booking)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
