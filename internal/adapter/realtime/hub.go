package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports"
)

// Envelope is one frame on the realtime channel, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type session struct {
	id     string
	userID uuid.UUID
	out    chan Envelope
}

// Hub is the presence registry. A user may hold several live sessions
// (multiple tabs); presence is the union and a push goes to every session.
// All state is in-memory: on restart everyone is offline until they rejoin.
type Hub struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]map[string]*session
	byConn   map[string]*session
	messages ports.MessageRepository
}

func NewHub(messages ports.MessageRepository) *Hub {
	return &Hub{
		users:    make(map[uuid.UUID]map[string]*session),
		byConn:   make(map[string]*session),
		messages: messages,
	}
}

func (h *Hub) connect(userID uuid.UUID, connID string, out chan Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &session{id: connID, userID: userID, out: out}
	if h.users[userID] == nil {
		h.users[userID] = make(map[string]*session)
	}
	h.users[userID][connID] = s
	h.byConn[connID] = s
}

func (h *Hub) disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.byConn[connID]
	if !ok {
		return
	}
	delete(h.byConn, connID)
	delete(h.users[s.userID], connID)
	if len(h.users[s.userID]) == 0 {
		delete(h.users, s.userID)
	}
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// Send delivers an event to every live session of userID. Sessions whose
// outbound buffer is full are skipped rather than blocked on.
func (h *Hub) Send(userID uuid.UUID, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := Envelope{Event: event, Data: data}

	h.mu.RLock()
	sessions := make([]*session, 0, len(h.users[userID]))
	for _, s := range h.users[userID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		select {
		case s.out <- env:
		default:
			log.Printf("[realtime] dropping %s for slow session %s", event, s.id)
		}
	}
	return nil
}

type chatPayload struct {
	ToReceiverID uuid.UUID `json:"toReceiverId"`
	Content      string    `json:"content"`
}

// relayChat persists the message and pushes it to both parties' sessions.
func (h *Hub) relayChat(ctx context.Context, senderID uuid.UUID, raw json.RawMessage) {
	var in chatPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("[realtime] bad sendMessage payload from %s: %v", senderID, err)
		return
	}
	if in.ToReceiverID == uuid.Nil || in.Content == "" {
		return
	}

	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: in.ToReceiverID,
		Content:    in.Content,
		SentAt:     time.Now().UTC(),
	}
	if err := h.messages.Create(ctx, msg); err != nil {
		log.Printf("[realtime] persist message: %v", err)
		return
	}

	_ = h.Send(in.ToReceiverID, "newMessage", msg)
	_ = h.Send(senderID, "newMessage", msg)
}
