package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/ntdung97/spacebook/internal/core/domain"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO notifications (id, receiver_id, title, message, type, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.ReceiverID, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverID uuid.UUID, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
	SELECT id, receiver_id, title, message, type, is_read, created_at
	FROM notifications
	WHERE receiver_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`, receiverID, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.ReceiverID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}

		out = append(out, n)
	}

	return out, rows.Err()
}

// MarkRead flips is_read for the receiver's own notification only.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, receiverID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
	UPDATE notifications SET is_read = TRUE WHERE id = $1 AND receiver_id = $2
	`, id, receiverID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO messages (id, sender_id, receiver_id, content, sent_at)
	VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.SenderID, m.ReceiverID, m.Content, m.SentAt)
	return err
}
