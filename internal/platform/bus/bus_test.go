package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New(8)

	got1 := make(chan any, 1)
	got2 := make(chan any, 1)
	b.Subscribe("booking.created", func(ctx context.Context, payload any) { got1 <- payload })
	b.Subscribe("booking.created", func(ctx context.Context, payload any) { got2 <- payload })

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	require.NoError(t, b.Publish(context.Background(), "booking.created", "evt"))

	for _, got := range []chan any{got1, got2} {
		select {
		case payload := <-got:
			assert.Equal(t, "evt", payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}

	cancel()
	<-b.Done()
}

func TestTopicsAreIsolated(t *testing.T) {
	b := New(8)

	var created, canceled atomic.Int32
	b.Subscribe("booking.created", func(ctx context.Context, payload any) { created.Add(1) })
	b.Subscribe("booking.canceled", func(ctx context.Context, payload any) { canceled.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	require.NoError(t, b.Publish(context.Background(), "booking.created", nil))

	cancel()
	<-b.Done()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(0), canceled.Load())
}

func TestRunDrainsQueueOnShutdown(t *testing.T) {
	b := New(16)

	var handled atomic.Int32
	b.Subscribe("payment.succeeded", func(ctx context.Context, payload any) { handled.Add(1) })

	// Enqueue before the dispatch loop starts, then shut down immediately:
	// everything already accepted must still be delivered.
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Publish(context.Background(), "payment.succeeded", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go b.Run(ctx)

	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("bus did not drain")
	}

	assert.Equal(t, int32(10), handled.Load())
}

func TestPublishHonorsCanceledContext(t *testing.T) {
	b := New(1)

	// Fill the buffer; nobody is dispatching.
	require.NoError(t, b.Publish(context.Background(), "t", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Publish(ctx, "t", 2), context.Canceled)
}
