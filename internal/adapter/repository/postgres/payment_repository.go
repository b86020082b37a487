package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/ntdung97/spacebook/internal/core/domain"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO payments (id, booking_id, order_code, amount, method, status, checkout_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, payment.ID, payment.BookingID, payment.OrderCode, payment.Amount,
		payment.Method, payment.Status, payment.CheckoutURL, payment.CreatedAt)
	return err
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Payment, error) {
	var p domain.Payment
	var paidAt sql.NullTime
	var method, checkoutURL sql.NullString

	err := r.db.QueryRowContext(ctx, `
	SELECT id, booking_id, order_code, amount, method, status, checkout_url, created_at, paid_at
	FROM payments
	WHERE booking_id = $1
	`, bookingID).Scan(
		&p.ID,
		&p.BookingID,
		&p.OrderCode,
		&p.Amount,
		&method,
		&p.Status,
		&checkoutURL,
		&p.CreatedAt,
		&paidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	p.Method = method.String
	p.CheckoutURL = checkoutURL.String
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}

	return &p, nil
}

// MarkFailedByOrderCode records a failed provider attempt. Only a PENDING
// payment moves; a payment that already settled is left untouched.
func (r *PaymentRepository) MarkFailedByOrderCode(ctx context.Context, orderCode int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
	UPDATE payments SET status = $1 WHERE order_code = $2 AND status = $3
	`, domain.PaymentFailed, orderCode, domain.PaymentPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
