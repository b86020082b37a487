package ports

import (
	"context"
	"time"

	"github.com/ntdung97/spacebook/internal/core/domain"
)

// JobHandler processes one fired job. A returned error triggers the
// scheduler's retry policy.
type JobHandler func(ctx context.Context, job domain.Job) error

// JobScheduler is the delayed-delivery queue contract. Scheduling a job whose
// ID matches a live job replaces it. Cancel of an unknown ID is a no-op.
type JobScheduler interface {
	// Schedule enqueues job to fire after delay. delay must be positive.
	Schedule(ctx context.Context, job domain.Job, delay time.Duration) error
	// Enqueue schedules job for immediate pickup.
	Enqueue(ctx context.Context, job domain.Job) error
	Cancel(ctx context.Context, jobID string) error
}
