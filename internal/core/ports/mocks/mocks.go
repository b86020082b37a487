// Package mocks provides testify mocks for the core ports.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func setup(t testingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

type BookingRepository struct{ mock.Mock }

func NewBookingRepository(t testingT) *BookingRepository {
	m := &BookingRepository{}
	setup(t, &m.Mock)
	return m
}

func (m *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	var b *domain.Booking
	if args.Get(0) != nil {
		b = args.Get(0).(*domain.Booking)
	}
	return b, args.Error(1)
}

func (m *BookingRepository) GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Booking, error) {
	args := m.Called(ctx, orderCode)
	var b *domain.Booking
	if args.Get(0) != nil {
		b = args.Get(0).(*domain.Booking)
	}
	return b, args.Error(1)
}

func (m *BookingRepository) Confirm(ctx context.Context, bookingID uuid.UUID, expiredAt time.Time) (bool, error) {
	args := m.Called(ctx, bookingID, expiredAt)
	return args.Bool(0), args.Error(1)
}

func (m *BookingRepository) UpdateStatusFrom(ctx context.Context, bookingID uuid.UUID, from, to domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, bookingID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *BookingRepository) CompletePaid(ctx context.Context, bookingID uuid.UUID, method string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, bookingID, method, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *BookingRepository) ExpireUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

type PaymentRepository struct{ mock.Mock }

func NewPaymentRepository(t testingT) *PaymentRepository {
	m := &PaymentRepository{}
	setup(t, &m.Mock)
	return m
}

func (m *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *PaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	var p *domain.Payment
	if args.Get(0) != nil {
		p = args.Get(0).(*domain.Payment)
	}
	return p, args.Error(1)
}

func (m *PaymentRepository) MarkFailedByOrderCode(ctx context.Context, orderCode int64) (bool, error) {
	args := m.Called(ctx, orderCode)
	return args.Bool(0), args.Error(1)
}

type NotificationRepository struct{ mock.Mock }

func NewNotificationRepository(t testingT) *NotificationRepository {
	m := &NotificationRepository{}
	setup(t, &m.Mock)
	return m
}

func (m *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *NotificationRepository) ListByReceiver(ctx context.Context, receiverID uuid.UUID, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, receiverID, limit)
	var out []domain.Notification
	if args.Get(0) != nil {
		out = args.Get(0).([]domain.Notification)
	}
	return out, args.Error(1)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, id, receiverID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, receiverID)
	return args.Bool(0), args.Error(1)
}

type MessageRepository struct{ mock.Mock }

func NewMessageRepository(t testingT) *MessageRepository {
	m := &MessageRepository{}
	setup(t, &m.Mock)
	return m
}

func (m *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type Directory struct{ mock.Mock }

func NewDirectory(t testingT) *Directory {
	m := &Directory{}
	setup(t, &m.Mock)
	return m
}

func (m *Directory) SpaceManagers(ctx context.Context, spaceID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, spaceID)
	var ids []uuid.UUID
	if args.Get(0) != nil {
		ids = args.Get(0).([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *Directory) Operators(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	var ids []uuid.UUID
	if args.Get(0) != nil {
		ids = args.Get(0).([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *Directory) Contact(ctx context.Context, userID uuid.UUID) (*domain.Contact, error) {
	args := m.Called(ctx, userID)
	var c *domain.Contact
	if args.Get(0) != nil {
		c = args.Get(0).(*domain.Contact)
	}
	return c, args.Error(1)
}

type JobScheduler struct{ mock.Mock }

func NewJobScheduler(t testingT) *JobScheduler {
	m := &JobScheduler{}
	setup(t, &m.Mock)
	return m
}

func (m *JobScheduler) Schedule(ctx context.Context, job domain.Job, delay time.Duration) error {
	return m.Called(ctx, job, delay).Error(0)
}

func (m *JobScheduler) Enqueue(ctx context.Context, job domain.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *JobScheduler) Cancel(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}

type EventBus struct{ mock.Mock }

func NewEventBus(t testingT) *EventBus {
	m := &EventBus{}
	setup(t, &m.Mock)
	return m
}

func (m *EventBus) Publish(ctx context.Context, topic string, payload any) error {
	return m.Called(ctx, topic, payload).Error(0)
}

func (m *EventBus) Subscribe(topic string, h ports.EventHandler) {
	m.Called(topic, h)
}

type Presence struct{ mock.Mock }

func NewPresence(t testingT) *Presence {
	m := &Presence{}
	setup(t, &m.Mock)
	return m
}

func (m *Presence) IsOnline(userID uuid.UUID) bool {
	return m.Called(userID).Bool(0)
}

func (m *Presence) Send(userID uuid.UUID, event string, payload any) error {
	return m.Called(userID, event, payload).Error(0)
}

type PaymentProvider struct{ mock.Mock }

func NewPaymentProvider(t testingT) *PaymentProvider {
	m := &PaymentProvider{}
	setup(t, &m.Mock)
	return m
}

func (m *PaymentProvider) CreatePaymentLink(ctx context.Context, orderCode, amount int64, description string) (string, error) {
	args := m.Called(ctx, orderCode, amount, description)
	return args.String(0), args.Error(1)
}

type EmailSender struct{ mock.Mock }

func NewEmailSender(t testingT) *EmailSender {
	m := &EmailSender{}
	setup(t, &m.Mock)
	return m
}

func (m *EmailSender) Send(ctx context.Context, to, templateName string, data map[string]string) error {
	return m.Called(ctx, to, templateName, data).Error(0)
}

type SMSSender struct{ mock.Mock }

func NewSMSSender(t testingT) *SMSSender {
	m := &SMSSender{}
	setup(t, &m.Mock)
	return m
}

func (m *SMSSender) Send(ctx context.Context, to, text string) error {
	return m.Called(ctx, to, text).Error(0)
}
