package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports"
)

// Bridge mirrors committed lifecycle events onto a durable RabbitMQ topic
// exchange so external consumers (analytics, audit) can follow the lifecycle
// without a hook into this process. Best-effort: a publish failure is logged,
// never surfaced to the transition that produced the event.
type Bridge struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func New(url, exchange string) (*Bridge, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Bridge{conn: conn, ch: ch, exchange: exchange}, nil
}

// Attach subscribes the bridge to every lifecycle topic on the in-process bus.
func (b *Bridge) Attach(bus ports.EventBus) {
	for _, topic := range domain.Topics() {
		topic := topic
		bus.Subscribe(topic, func(ctx context.Context, payload any) {
			if err := b.publishJSON(ctx, topic, payload); err != nil {
				log.Printf("[bridge] publish %s: %v", topic, err)
			}
		})
	}
}

func (b *Bridge) publishJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.ch.PublishWithContext(ctx, b.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (b *Bridge) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
