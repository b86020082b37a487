package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports"
)

// TransitionOutcome tags the result of a lifecycle transition so callers can
// map the same underlying condition to different user-facing behavior: the
// webhook path treats AlreadyDone as success, an explicit user action maps it
// to a conflict.
type TransitionOutcome int

const (
	OutcomeApplied TransitionOutcome = iota
	OutcomeAlreadyDone
	OutcomeNotFound
	OutcomeConflict
)

type CreateBookingInput struct {
	UserID     uuid.UUID
	SpaceID    uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	TotalPrice int64
}

// LifecycleService owns every booking/payment state transition. Transitions
// run as state-conditional updates inside single transactions; committed
// transitions publish exactly one lifecycle event and adjust the booking's
// delayed jobs.
type LifecycleService struct {
	bookings ports.BookingRepository
	payments ports.PaymentRepository
	jobs     ports.JobScheduler
	bus      ports.EventBus
	provider ports.PaymentProvider

	reminderLead time.Duration
	node         *snowflake.Node
	tracer       trace.Tracer
	now          func() time.Time
}

func NewLifecycleService(
	bookings ports.BookingRepository,
	payments ports.PaymentRepository,
	jobs ports.JobScheduler,
	bus ports.EventBus,
	provider ports.PaymentProvider,
	reminderLead time.Duration,
) (*LifecycleService, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("init order code generator: %w", err)
	}

	return &LifecycleService{
		bookings:     bookings,
		payments:     payments,
		jobs:         jobs,
		bus:          bus,
		provider:     provider,
		reminderLead: reminderLead,
		node:         node,
		tracer:       otel.Tracer("spacebook/lifecycle"),
		now:          time.Now,
	}, nil
}

// CreateBooking inserts a PENDING booking and publishes BookingCreated. The
// repository rejects any overlap with a live booking on the same space.
func (s *LifecycleService) CreateBooking(ctx context.Context, in CreateBookingInput) (*domain.Booking, error) {
	if !in.EndTime.After(in.StartTime) {
		return nil, errors.New("end time must be after start time")
	}
	if in.TotalPrice <= 0 {
		return nil, errors.New("total price must be positive")
	}

	booking := &domain.Booking{
		ID:         uuid.New(),
		SpaceID:    in.SpaceID,
		UserID:     in.UserID,
		OrderCode:  s.node.Generate().Int64(),
		StartTime:  in.StartTime.UTC(),
		EndTime:    in.EndTime.UTC(),
		TotalPrice: in.TotalPrice,
		Status:     domain.BookingPending,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicBookingCreated, domain.BookingCreatedEvent{
		BookingID: booking.ID,
		SpaceID:   booking.SpaceID,
		UserID:    booking.UserID,
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
	})

	return booking, nil
}

func (s *LifecycleService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

// Confirm moves a PENDING booking to CONFIRMED, issues the payment request
// and schedules the reminder and expire jobs against expiredAt. Job IDs are
// derived from the booking ID, so a re-confirmation replaces stale jobs
// instead of stacking new ones.
func (s *LifecycleService) Confirm(ctx context.Context, bookingID uuid.UUID, expiredAt time.Time) (TransitionOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Confirm")
	defer span.End()

	applied, err := s.bookings.Confirm(ctx, bookingID, expiredAt)
	if err != nil {
		return OutcomeConflict, err
	}
	if !applied {
		return s.classifyMiss(ctx, bookingID, domain.BookingConfirmed)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return OutcomeConflict, err
	}

	link := s.issuePayment(ctx, booking)
	s.scheduleLifecycleJobs(ctx, booking, expiredAt, link)

	s.publish(ctx, domain.TopicBookingConfirmed, domain.BookingConfirmedEvent{
		BookingID:   booking.ID,
		SpaceID:     booking.SpaceID,
		UserID:      booking.UserID,
		ExpiredAt:   expiredAt,
		PaymentLink: link,
	})

	return OutcomeApplied, nil
}

// issuePayment creates the payment record and requests a provider-hosted
// payment link. Link failure is logged, not fatal: the booking stays
// CONFIRMED and the expire job still guards the deadline.
func (s *LifecycleService) issuePayment(ctx context.Context, booking *domain.Booking) string {
	link, err := s.provider.CreatePaymentLink(ctx, booking.OrderCode, booking.TotalPrice,
		fmt.Sprintf("Booking %s", booking.ID))
	if err != nil {
		log.Printf("[lifecycle] payment link for booking %s: %v", booking.ID, err)
		link = ""
	}

	payment := &domain.Payment{
		ID:          uuid.New(),
		BookingID:   booking.ID,
		OrderCode:   booking.OrderCode,
		Amount:      booking.TotalPrice,
		Status:      domain.PaymentPending,
		CheckoutURL: link,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		log.Printf("[lifecycle] create payment for booking %s: %v", booking.ID, err)
	}

	return link
}

func (s *LifecycleService) scheduleLifecycleJobs(ctx context.Context, booking *domain.Booking, expiredAt time.Time, link string) {
	payload := domain.BookingJobPayload{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		ExpiredAt:   expiredAt,
		PaymentLink: link,
	}

	if delay := expiredAt.Sub(s.now()) - s.reminderLead; delay > 0 {
		job, err := domain.NewJob(domain.ReminderJobID(booking.ID), domain.JobKindPaymentReminder, payload)
		if err == nil {
			err = s.jobs.Schedule(ctx, job, delay)
		}
		if err != nil {
			log.Printf("[lifecycle] schedule reminder for booking %s: %v", booking.ID, err)
		}
	}

	if delay := expiredAt.Sub(s.now()); delay > 0 {
		job, err := domain.NewJob(domain.ExpireJobID(booking.ID), domain.JobKindExpireBooking, payload)
		if err == nil {
			err = s.jobs.Schedule(ctx, job, delay)
		}
		if err != nil {
			log.Printf("[lifecycle] schedule expire for booking %s: %v", booking.ID, err)
		}
	} else {
		log.Printf("[lifecycle] booking %s confirmed with non-future expiry %s, no expire job", booking.ID, expiredAt)
	}
}

// Reject declines a PENDING booking.
func (s *LifecycleService) Reject(ctx context.Context, bookingID uuid.UUID, reason string) (TransitionOutcome, error) {
	applied, err := s.bookings.UpdateStatusFrom(ctx, bookingID, domain.BookingPending, domain.BookingRejected)
	if err != nil {
		return OutcomeConflict, err
	}
	if !applied {
		return s.classifyMiss(ctx, bookingID, domain.BookingRejected)
	}

	s.cancelLifecycleJobs(ctx, bookingID)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return OutcomeApplied, nil
	}

	s.publish(ctx, domain.TopicBookingRejected, domain.BookingRejectedEvent{
		BookingID: booking.ID,
		SpaceID:   booking.SpaceID,
		UserID:    booking.UserID,
		Reason:    reason,
	})

	return OutcomeApplied, nil
}

// Cancel withdraws a PENDING or CONFIRMED booking.
func (s *LifecycleService) Cancel(ctx context.Context, bookingID uuid.UUID) (TransitionOutcome, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OutcomeNotFound, nil
		}
		return OutcomeConflict, err
	}

	switch booking.Status {
	case domain.BookingCanceled:
		return OutcomeAlreadyDone, nil
	case domain.BookingPending, domain.BookingConfirmed:
	default:
		return OutcomeConflict, nil
	}

	applied, err := s.bookings.UpdateStatusFrom(ctx, bookingID, booking.Status, domain.BookingCanceled)
	if err != nil {
		return OutcomeConflict, err
	}
	if !applied {
		// Raced with another transition since the read.
		return OutcomeConflict, nil
	}

	s.cancelLifecycleJobs(ctx, bookingID)

	s.publish(ctx, domain.TopicBookingCanceled, domain.BookingCanceledEvent{
		BookingID: booking.ID,
		SpaceID:   booking.SpaceID,
		UserID:    booking.UserID,
	})

	return OutcomeApplied, nil
}

// HandlePaid settles a verified payment. Booking CONFIRMED -> COMPLETED and
// payment PENDING -> PAID commit in one transaction; anything else is an
// idempotent no-op so replayed webhooks and raced expire jobs cannot corrupt
// state. The event publishes only on the committing call.
func (s *LifecycleService) HandlePaid(ctx context.Context, bookingID uuid.UUID, amount int64, method string) (TransitionOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.HandlePaid")
	defer span.End()

	applied, err := s.bookings.CompletePaid(ctx, bookingID, method, s.now().UTC())
	if err != nil {
		return OutcomeConflict, err
	}
	if !applied {
		booking, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return OutcomeNotFound, nil
			}
			return OutcomeConflict, err
		}
		if booking.Status == domain.BookingCompleted {
			return OutcomeAlreadyDone, nil
		}
		return OutcomeConflict, nil
	}

	s.cancelLifecycleJobs(ctx, bookingID)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return OutcomeApplied, nil
	}

	s.publish(ctx, domain.TopicPaymentSucceeded, domain.PaymentSucceededEvent{
		BookingID: booking.ID,
		SpaceID:   booking.SpaceID,
		UserID:    booking.UserID,
		OrderCode: booking.OrderCode,
		Amount:    amount,
		Method:    method,
	})

	return OutcomeApplied, nil
}

// HandleWebhookPaid resolves a verified webhook's order code to its booking.
// An unknown order code is logged and swallowed: the provider always receives
// a success acknowledgement.
func (s *LifecycleService) HandleWebhookPaid(ctx context.Context, orderCode, amount int64, method string) error {
	booking, err := s.bookings.GetByOrderCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Printf("[lifecycle] webhook for unknown order code %d, ignoring", orderCode)
			return nil
		}
		return err
	}

	outcome, err := s.HandlePaid(ctx, booking.ID, amount, method)
	if err != nil {
		return err
	}
	if outcome != OutcomeApplied {
		log.Printf("[lifecycle] webhook for booking %s was a no-op (outcome %d)", booking.ID, outcome)
	}
	return nil
}

// RecordFailedAttempt marks the payment attempt FAILED after a verified but
// unsuccessful callback. The booking is untouched; the expire job remains the
// authority for releasing it.
func (s *LifecycleService) RecordFailedAttempt(ctx context.Context, orderCode int64) {
	moved, err := s.payments.MarkFailedByOrderCode(ctx, orderCode)
	if err != nil {
		log.Printf("[lifecycle] mark payment failed for order %d: %v", orderCode, err)
		return
	}
	if !moved {
		log.Printf("[lifecycle] failed callback for settled order %d, ignoring", orderCode)
	}
}

// HandleExpired releases a booking whose payment deadline elapsed. A booking
// that already left CONFIRMED means the job fired after a race with payment
// or cancellation: no state change, no event.
func (s *LifecycleService) HandleExpired(ctx context.Context, bookingID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "lifecycle.HandleExpired")
	defer span.End()

	applied, err := s.bookings.ExpireUnpaid(ctx, bookingID)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("[lifecycle] expire job for booking %s found it already transitioned, no-op", bookingID)
		return nil
	}

	// The reminder may still be pending if the lead window hasn't passed.
	if err := s.jobs.Cancel(ctx, domain.ReminderJobID(bookingID)); err != nil {
		log.Printf("[lifecycle] cancel reminder for booking %s: %v", bookingID, err)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil
	}

	s.publish(ctx, domain.TopicPaymentFailed, domain.PaymentFailedEvent{
		BookingID: booking.ID,
		SpaceID:   booking.SpaceID,
		UserID:    booking.UserID,
		Reason:    "payment deadline elapsed",
	})

	return nil
}

// HandleReminder re-reads current state at fire time; it only publishes when
// the booking is still CONFIRMED with an unpaid payment.
func (s *LifecycleService) HandleReminder(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if booking.Status != domain.BookingConfirmed {
		return nil
	}

	payment, err := s.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if payment.Status != domain.PaymentPending {
		return nil
	}

	evt := domain.PaymentReminderEvent{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		PaymentLink: payment.CheckoutURL,
	}
	if booking.ExpiredAt != nil {
		evt.ExpiredAt = *booking.ExpiredAt
	}
	s.publish(ctx, domain.TopicPaymentReminder, evt)

	return nil
}

// HandleExpireJob and HandleReminderJob adapt the scheduler's job contract to
// the lifecycle operations.
func (s *LifecycleService) HandleExpireJob(ctx context.Context, job domain.Job) error {
	payload, err := decodeBookingJob(job)
	if err != nil {
		return err
	}
	return s.HandleExpired(ctx, payload.BookingID)
}

func (s *LifecycleService) HandleReminderJob(ctx context.Context, job domain.Job) error {
	payload, err := decodeBookingJob(job)
	if err != nil {
		return err
	}
	return s.HandleReminder(ctx, payload.BookingID)
}

func decodeBookingJob(job domain.Job) (domain.BookingJobPayload, error) {
	var payload domain.BookingJobPayload
	if err := unmarshalJob(job, &payload); err != nil {
		return payload, err
	}
	if payload.BookingID == uuid.Nil {
		return payload, fmt.Errorf("job %s has no booking id", job.ID)
	}
	return payload, nil
}

// classifyMiss explains a state-conditional update that moved no row.
func (s *LifecycleService) classifyMiss(ctx context.Context, bookingID uuid.UUID, target domain.BookingStatus) (TransitionOutcome, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OutcomeNotFound, nil
		}
		return OutcomeConflict, err
	}
	if booking.Status == target {
		return OutcomeAlreadyDone, nil
	}
	return OutcomeConflict, nil
}

// cancelLifecycleJobs drops both delayed jobs for the booking. Cancellation
// is best-effort and never blocks the transition that triggered it; a job
// that already fired hits the state-check no-op instead.
func (s *LifecycleService) cancelLifecycleJobs(ctx context.Context, bookingID uuid.UUID) {
	if err := s.jobs.Cancel(ctx, domain.ReminderJobID(bookingID)); err != nil {
		log.Printf("[lifecycle] cancel reminder job for booking %s: %v", bookingID, err)
	}
	if err := s.jobs.Cancel(ctx, domain.ExpireJobID(bookingID)); err != nil {
		log.Printf("[lifecycle] cancel expire job for booking %s: %v", bookingID, err)
	}
}

func (s *LifecycleService) publish(ctx context.Context, topic string, payload any) {
	if err := s.bus.Publish(ctx, topic, payload); err != nil {
		log.Printf("[lifecycle] publish %s: %v", topic, err)
	}
}
