package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports"
)

// NotificationService is the fan-out pipeline. It consumes lifecycle events,
// resolves the interested receivers, persists one Notification per receiver,
// then delivers: a live push when the receiver is online, otherwise an email
// fallback job; payment reminders additionally always go out by SMS. Each
// receiver's delivery is independent; there is no cross-receiver transaction.
type NotificationService struct {
	store    ports.NotificationRepository
	dir      ports.Directory
	presence ports.Presence
	jobs     ports.JobScheduler
	email    ports.EmailSender
	sms      ports.SMSSender

	now func() time.Time
}

func NewNotificationService(
	store ports.NotificationRepository,
	dir ports.Directory,
	presence ports.Presence,
	jobs ports.JobScheduler,
	email ports.EmailSender,
	sms ports.SMSSender,
) *NotificationService {
	return &NotificationService{
		store:    store,
		dir:      dir,
		presence: presence,
		jobs:     jobs,
		email:    email,
		sms:      sms,
		now:      time.Now,
	}
}

// Register subscribes the pipeline to every lifecycle topic it renders.
func (s *NotificationService) Register(bus ports.EventBus) {
	bus.Subscribe(domain.TopicBookingCreated, func(ctx context.Context, payload any) {
		if evt, ok := payload.(domain.BookingCreatedEvent); ok {
			s.onBookingCreated(ctx, evt)
		}
	})
	bus.Subscribe(domain.TopicBookingConfirmed, func(ctx context.Context, payload any) {
		if evt, ok := payload.(domain.BookingConfirmedEvent); ok {
			s.onBookingConfirmed(ctx, evt)
		}
	})
	bus.Subscribe(domain.TopicBookingRejected, func(ctx context.Context, payload any) {
		if evt, ok := payload.(domain.BookingRejectedEvent); ok {
			s.onBookingRejected(ctx, evt)
		}
	})
	bus.Subscribe(domain.TopicBookingCanceled, func(ctx context.Context, payload any) {
		if evt, ok := payload.(domain.BookingCanceledEvent); ok {
			s.onBookingCanceled(ctx, evt)
		}
	})
	bus.Subscribe(domain.TopicPaymentSucceeded, func(ctx context.Context, payload any) {
		if evt, ok := payload.(domain.PaymentSucceededEvent); ok {
			s.onPaymentSucceeded(ctx, evt)
		}
	})
	bus.Subscribe(domain.TopicPaymentFailed, func(ctx context.Context, payload any) {
		if evt, ok := payload.(domain.PaymentFailedEvent); ok {
			s.onPaymentFailed(ctx, evt)
		}
	})
	bus.Subscribe(domain.TopicPaymentReminder, func(ctx context.Context, payload any) {
		if evt, ok := payload.(domain.PaymentReminderEvent); ok {
			s.onPaymentReminder(ctx, evt)
		}
	})
}

type delivery struct {
	title     string
	message   string
	kind      string
	template  string
	tctx      map[string]string
	alwaysSMS bool
	smsText   string
}

func (s *NotificationService) onBookingCreated(ctx context.Context, evt domain.BookingCreatedEvent) {
	receivers, err := s.dir.SpaceManagers(ctx, evt.SpaceID)
	if err != nil {
		log.Printf("[fanout] resolve managers for space %s: %v", evt.SpaceID, err)
		return
	}

	d := delivery{
		title:    "New booking request",
		message:  fmt.Sprintf("A booking was requested from %s to %s.", evt.StartTime.Format(time.RFC3339), evt.EndTime.Format(time.RFC3339)),
		kind:     "BOOKING_CREATED",
		template: "booking-created",
		tctx:     map[string]string{"bookingId": evt.BookingID.String()},
	}
	for _, receiver := range receivers {
		s.deliver(ctx, receiver, d)
	}
}

func (s *NotificationService) onBookingConfirmed(ctx context.Context, evt domain.BookingConfirmedEvent) {
	s.deliver(ctx, evt.UserID, delivery{
		title:    "Booking confirmed",
		message:  fmt.Sprintf("Your booking is confirmed. Please pay before %s.", evt.ExpiredAt.Format(time.RFC3339)),
		kind:     "BOOKING_CONFIRMED",
		template: "booking-confirmed",
		tctx: map[string]string{
			"bookingId":   evt.BookingID.String(),
			"expiredAt":   evt.ExpiredAt.Format(time.RFC3339),
			"paymentLink": evt.PaymentLink,
		},
	})
}

func (s *NotificationService) onBookingRejected(ctx context.Context, evt domain.BookingRejectedEvent) {
	s.deliver(ctx, evt.UserID, delivery{
		title:    "Booking rejected",
		message:  fmt.Sprintf("Your booking was rejected: %s", evt.Reason),
		kind:     "BOOKING_REJECTED",
		template: "booking-rejected",
		tctx: map[string]string{
			"bookingId": evt.BookingID.String(),
			"reason":    evt.Reason,
		},
	})
}

func (s *NotificationService) onBookingCanceled(ctx context.Context, evt domain.BookingCanceledEvent) {
	receivers, err := s.dir.SpaceManagers(ctx, evt.SpaceID)
	if err != nil {
		log.Printf("[fanout] resolve managers for space %s: %v", evt.SpaceID, err)
		receivers = nil
	}
	receivers = appendUnique(receivers, evt.UserID)

	d := delivery{
		title:    "Booking canceled",
		message:  "A booking has been canceled.",
		kind:     "BOOKING_CANCELED",
		template: "booking-canceled",
		tctx:     map[string]string{"bookingId": evt.BookingID.String()},
	}
	for _, receiver := range receivers {
		s.deliver(ctx, receiver, d)
	}
}

func (s *NotificationService) onPaymentSucceeded(ctx context.Context, evt domain.PaymentSucceededEvent) {
	s.deliver(ctx, evt.UserID, delivery{
		title:    "Payment received",
		message:  fmt.Sprintf("Your payment of %d was received. The booking is complete.", evt.Amount),
		kind:     "PAYMENT_SUCCEEDED",
		template: "payment-succeeded",
		tctx: map[string]string{
			"bookingId": evt.BookingID.String(),
			"amount":    fmt.Sprintf("%d", evt.Amount),
		},
	})
}

func (s *NotificationService) onPaymentFailed(ctx context.Context, evt domain.PaymentFailedEvent) {
	s.deliver(ctx, evt.UserID, delivery{
		title:    "Payment failed",
		message:  fmt.Sprintf("Your booking was released: %s.", evt.Reason),
		kind:     "PAYMENT_FAILED",
		template: "payment-failed",
		tctx:     map[string]string{"bookingId": evt.BookingID.String()},
	})

	// Operators watch auto-released slots.
	operators, err := s.dir.Operators(ctx)
	if err != nil {
		log.Printf("[fanout] resolve operators: %v", err)
		return
	}
	d := delivery{
		title:    "Booking released",
		message:  fmt.Sprintf("A booking was released automatically: %s.", evt.Reason),
		kind:     "PAYMENT_FAILED",
		template: "payment-failed",
		tctx:     map[string]string{"bookingId": evt.BookingID.String()},
	}
	for _, operator := range operators {
		if operator == evt.UserID {
			continue
		}
		s.deliver(ctx, operator, d)
	}
}

func (s *NotificationService) onPaymentReminder(ctx context.Context, evt domain.PaymentReminderEvent) {
	s.deliver(ctx, evt.UserID, delivery{
		title:    "Payment reminder",
		message:  fmt.Sprintf("Your booking expires at %s. Please complete the payment.", evt.ExpiredAt.Format(time.RFC3339)),
		kind:     "PAYMENT_REMINDER",
		template: "payment-reminder",
		tctx: map[string]string{
			"bookingId":   evt.BookingID.String(),
			"expiredAt":   evt.ExpiredAt.Format(time.RFC3339),
			"paymentLink": evt.PaymentLink,
		},
		alwaysSMS: true,
		smsText:   fmt.Sprintf("Spacebook: your booking expires at %s. Pay now: %s", evt.ExpiredAt.Format("15:04 02/01"), evt.PaymentLink),
	})
}

// deliver handles one receiver: persist, then push live or queue fallback.
// Every step is independent and failure of one never aborts the others.
func (s *NotificationService) deliver(ctx context.Context, receiverID uuid.UUID, d delivery) {
	n := &domain.Notification{
		ID:         uuid.New(),
		ReceiverID: receiverID,
		Title:      d.title,
		Message:    d.message,
		Type:       d.kind,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		log.Printf("[fanout] persist notification for %s: %v", receiverID, err)
	}

	online := s.presence.IsOnline(receiverID)
	if online {
		if err := s.presence.Send(receiverID, "newNotification", n); err != nil {
			log.Printf("[fanout] live push to %s: %v", receiverID, err)
		}
	}

	if !online || d.alwaysSMS {
		contact, err := s.dir.Contact(ctx, receiverID)
		if err != nil {
			log.Printf("[fanout] resolve contact for %s: %v", receiverID, err)
			return
		}

		if !online && contact.Email != "" {
			s.enqueueEmail(ctx, n.ID, contact.Email, d.template, d.tctx)
		}
		if d.alwaysSMS && contact.Phone != "" {
			s.enqueueSMS(ctx, n.ID, contact.Phone, d.smsText)
		}
	}
}

func (s *NotificationService) enqueueEmail(ctx context.Context, notificationID uuid.UUID, to, template string, tctx map[string]string) {
	job, err := domain.NewJob(
		fmt.Sprintf("notify-email-%s", notificationID),
		domain.JobKindNotifyEmail,
		domain.EmailJobPayload{To: to, Template: template, Context: tctx},
	)
	if err == nil {
		err = s.jobs.Enqueue(ctx, job)
	}
	if err != nil {
		log.Printf("[fanout] enqueue email to %s: %v", to, err)
	}
}

func (s *NotificationService) enqueueSMS(ctx context.Context, notificationID uuid.UUID, to, text string) {
	job, err := domain.NewJob(
		fmt.Sprintf("notify-sms-%s", notificationID),
		domain.JobKindNotifySMS,
		domain.SMSJobPayload{To: to, Text: text},
	)
	if err == nil {
		err = s.jobs.Enqueue(ctx, job)
	}
	if err != nil {
		log.Printf("[fanout] enqueue sms to %s: %v", to, err)
	}
}

// HandleEmailJob and HandleSMSJob execute the queued fallback deliveries
// under the scheduler's retry policy.
func (s *NotificationService) HandleEmailJob(ctx context.Context, job domain.Job) error {
	var payload domain.EmailJobPayload
	if err := unmarshalJob(job, &payload); err != nil {
		return err
	}
	return s.email.Send(ctx, payload.To, payload.Template, payload.Context)
}

func (s *NotificationService) HandleSMSJob(ctx context.Context, job domain.Job) error {
	var payload domain.SMSJobPayload
	if err := unmarshalJob(job, &payload); err != nil {
		return err
	}
	return s.sms.Send(ctx, payload.To, payload.Text)
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// ListNotifications and MarkRead back the notification HTTP surface.
func (s *NotificationService) ListNotifications(ctx context.Context, receiverID uuid.UUID, limit int) ([]domain.Notification, error) {
	return s.store.ListByReceiver(ctx, receiverID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, receiverID uuid.UUID) (bool, error) {
	return s.store.MarkRead(ctx, id, receiverID)
}
