package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ntdung97/spacebook/internal/core/domain"
)

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a PENDING booking. The overlap probe locks any candidate row
// so two concurrent requests for the same slot cannot both pass the check.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	var clashID uuid.UUID
	err = tx.QueryRowContext(ctx, `
	SELECT id FROM bookings
	WHERE space_id = $1
	  AND status IN ('PENDING', 'CONFIRMED')
	  AND start_time < $2 AND end_time > $3
	LIMIT 1
	FOR UPDATE
	`, booking.SpaceID, booking.EndTime, booking.StartTime).Scan(&clashID)

	if err == nil {
		return domain.ErrOverlap
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("overlap check: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO bookings (id, space_id, user_id, order_code, start_time, end_time, total_price, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, booking.ID, booking.SpaceID, booking.UserID, booking.OrderCode,
		booking.StartTime, booking.EndTime, booking.TotalPrice, booking.Status, booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const bookingColumns = `id, space_id, user_id, order_code, start_time, end_time, total_price, status, created_at, expired_at`

func (r *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)
	return scanBooking(row)
}

func (r *BookingRepository) GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE order_code = $1`, orderCode)
	return scanBooking(row)
}

func scanBooking(row *sql.Row) (*domain.Booking, error) {
	var b domain.Booking
	var expiredAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.SpaceID,
		&b.UserID,
		&b.OrderCode,
		&b.StartTime,
		&b.EndTime,
		&b.TotalPrice,
		&b.Status,
		&b.CreatedAt,
		&expiredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if expiredAt.Valid {
		b.ExpiredAt = &expiredAt.Time
	}

	return &b, nil
}

func (r *BookingRepository) Confirm(ctx context.Context, bookingID uuid.UUID, expiredAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
	UPDATE bookings
	SET status = $1, expired_at = $2
	WHERE id = $3 AND status = $4
	`, domain.BookingConfirmed, expiredAt, bookingID, domain.BookingPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *BookingRepository) UpdateStatusFrom(ctx context.Context, bookingID uuid.UUID, from, to domain.BookingStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
	UPDATE bookings
	SET status = $1
	WHERE id = $2 AND status = $3
	`, to, bookingID, from)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// CompletePaid commits booking CONFIRMED -> COMPLETED and payment PENDING ->
// PAID as one transaction. A booking that already left CONFIRMED rolls the
// whole thing back and reports false, which is how duplicate webhook
// deliveries become no-ops.
func (r *BookingRepository) CompletePaid(ctx context.Context, bookingID uuid.UUID, method string, paidAt time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	UPDATE bookings SET status = $1 WHERE id = $2 AND status = $3
	`, domain.BookingCompleted, bookingID, domain.BookingConfirmed)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE payments
	SET status = $1, method = $2, paid_at = $3
	WHERE booking_id = $4 AND status = $5
	`, domain.PaymentPaid, method, paidAt, bookingID, domain.PaymentPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// ExpireUnpaid commits booking CONFIRMED -> CANCELED and payment PENDING ->
// FAILED. False means the booking already transitioned, i.e. the expire job
// lost a race with payment.
func (r *BookingRepository) ExpireUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	UPDATE bookings SET status = $1 WHERE id = $2 AND status = $3
	`, domain.BookingCanceled, bookingID, domain.BookingConfirmed)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE payments SET status = $1 WHERE booking_id = $2 AND status = $3
	`, domain.PaymentFailed, bookingID, domain.PaymentPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}
