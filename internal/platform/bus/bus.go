package bus

import (
	"context"
	"log"
	"sync"

	"github.com/ntdung97/spacebook/internal/core/ports"
)

type envelope struct {
	topic   string
	payload any
}

// Bus is an in-process publish/subscribe fabric. Publish enqueues onto a
// buffered channel; a single dispatch loop fans each event out to its topic's
// handlers, each on its own goroutine. Delivery is fire-and-forget with no
// ordering guarantee across topics.
type Bus struct {
	mu    sync.RWMutex
	subs  map[string][]ports.EventHandler
	queue chan envelope
	done  chan struct{}
	wg    sync.WaitGroup
}

func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		subs:  make(map[string][]ports.EventHandler),
		queue: make(chan envelope, buffer),
		done:  make(chan struct{}),
	}
}

// Subscribe registers h for topic. Registration happens at startup, before
// Run; it is safe but pointless to subscribe after events started flowing.
func (b *Bus) Subscribe(topic string, h ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	select {
	case b.queue <- envelope{topic: topic, payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches until ctx is canceled, then drains the queue.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case env := <-b.queue:
			b.dispatch(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-b.queue:
					b.dispatch(env)
				default:
					b.wg.Wait()
					close(b.done)
					return
				}
			}
		}
	}
}

// Done is closed once Run has finished draining.
func (b *Bus) Done() <-chan struct{} { return b.done }

func (b *Bus) dispatch(env envelope) {
	b.mu.RLock()
	handlers := append([]ports.EventHandler(nil), b.subs[env.topic]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		log.Printf("[bus] no subscribers for topic %s", env.topic)
		return
	}

	for _, h := range handlers {
		h := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			h(context.Background(), env.payload)
		}()
	}
}
