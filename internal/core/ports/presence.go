package ports

import "github.com/google/uuid"

// Presence tracks which users currently hold at least one live realtime
// connection. Send delivers to every live connection of the user and is a
// no-op when there is none.
type Presence interface {
	IsOnline(userID uuid.UUID) bool
	Send(userID uuid.UUID, event string, payload any) error
}
