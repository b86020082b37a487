package ports

import "context"

// EventHandler consumes one published event. Handlers run off the publishing
// goroutine; they must not assume any ordering across topics.
type EventHandler func(ctx context.Context, payload any)

// EventBus is the in-process lifecycle event fabric.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, h EventHandler)
}
