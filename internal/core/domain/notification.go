package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the persisted record of one status-change message addressed
// to one receiver. Records are never deleted by this subsystem.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Message is one chat message relayed over the realtime channel.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
}

// Contact holds the fallback delivery addresses for one user.
type Contact struct {
	Email string
	Phone string
}
