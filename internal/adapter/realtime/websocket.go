package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 32
)

// Gateway upgrades HTTP connections, authenticates them and feeds the hub.
// Unauthenticated connections are dropped before any join is accepted.
type Gateway struct {
	hub       *Hub
	jwtSecret string
	upgrader  websocket.Upgrader
}

func NewGateway(hub *Hub, jwtSecret string) *Gateway {
	return &Gateway{
		hub:       hub,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (g *Gateway) authenticate(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errors.New("missing token")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(g.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}

// Serve handles GET /ws?token=...
func (g *Gateway) Serve(c *gin.Context) {
	userID, err := g.authenticate(c.Query("token"))
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[realtime] upgrade: %v", err)
		return
	}

	connID := uuid.NewString()
	out := make(chan Envelope, sendBuffer)
	g.hub.connect(userID, connID, out)

	go g.writePump(conn, out)
	g.readPump(c, conn, userID, connID)
}

func (g *Gateway) readPump(c *gin.Context, conn *websocket.Conn, userID uuid.UUID, connID string) {
	defer func() {
		g.hub.disconnect(connID)
		_ = conn.Close()
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[realtime] read: %v", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		switch env.Event {
		case "join":
			ack, _ := json.Marshal(map[string]string{"userId": userID.String()})
			_ = g.hub.Send(userID, "joined", json.RawMessage(ack))
		case "sendMessage":
			g.hub.relayChat(c.Request.Context(), userID, env.Data)
		}
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, out chan Envelope) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case env, ok := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
