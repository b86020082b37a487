package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/ports"
)

const (
	keyScheduled = "jobs:scheduled"
	keyData      = "jobs:data"
	keyDead      = "jobs:dead"
)

var ErrNonPositiveDelay = errors.New("job delay must be positive")

// Scheduler is a Redis-backed delayed job queue. Fire times live in a sorted
// set keyed by job ID; job bodies live in a hash under the same ID. A member
// whose ZREM returns 1 belongs to exactly one worker, which makes the hand-off
// safe with several workers polling in parallel. Jobs that exhaust their
// attempts are parked in jobs:dead for operator inspection.
type Scheduler struct {
	rdb          *redis.Client
	pollInterval time.Duration
	backoffBase  time.Duration

	mu       sync.RWMutex
	handlers map[string]ports.JobHandler

	now func() time.Time
}

func New(rdb *redis.Client) *Scheduler {
	return &Scheduler{
		rdb:          rdb,
		pollInterval: time.Second,
		backoffBase:  5 * time.Second,
		handlers:     make(map[string]ports.JobHandler),
		now:          time.Now,
	}
}

// Register binds a handler to a job kind. Must happen before Run.
func (s *Scheduler) Register(kind string, h ports.JobHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

func (s *Scheduler) Schedule(ctx context.Context, job domain.Job, delay time.Duration) error {
	if delay <= 0 {
		return ErrNonPositiveDelay
	}
	return s.put(ctx, job, s.now().Add(delay))
}

func (s *Scheduler) Enqueue(ctx context.Context, job domain.Job) error {
	return s.put(ctx, job, s.now())
}

func (s *Scheduler) put(ctx context.Context, job domain.Job, fireAt time.Time) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, keyScheduled, redis.Z{Score: float64(fireAt.UnixMilli()), Member: job.ID})
	pipe.HSet(ctx, keyData, job.ID, body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("schedule job %s: %w", job.ID, err)
	}
	return nil
}

// Cancel removes the job if it has not fired yet. Canceling an unknown or
// already-fired job is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, jobID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.ZRem(ctx, keyScheduled, jobID)
	pipe.HDel(ctx, keyData, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cancel job %s: %w", jobID, err)
	}
	return nil
}

// Run polls for due jobs until ctx is canceled. Safe to run from several
// goroutines or processes at once.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	log.Println("Scheduler worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler worker stopped")
			return
		case <-ticker.C:
			s.processDue(ctx)
		}
	}
}

func (s *Scheduler) processDue(ctx context.Context) {
	now := s.now().UnixMilli()
	ids, err := s.rdb.ZRangeByScore(ctx, keyScheduled, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now),
		Count: 100,
	}).Result()
	if err != nil {
		log.Printf("[scheduler] poll error: %v", err)
		return
	}

	for _, id := range ids {
		removed, err := s.rdb.ZRem(ctx, keyScheduled, id).Result()
		if err != nil {
			log.Printf("[scheduler] claim %s: %v", id, err)
			continue
		}
		if removed == 0 {
			// Another worker claimed it first.
			continue
		}
		s.fire(ctx, id)
	}
}

func (s *Scheduler) fire(ctx context.Context, id string) {
	body, err := s.rdb.HGet(ctx, keyData, id).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[scheduler] load %s: %v", id, err)
		}
		return
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		log.Printf("[scheduler] corrupt job %s, dropping: %v", id, err)
		_ = s.rdb.HDel(ctx, keyData, id).Err()
		return
	}

	s.mu.RLock()
	handler, ok := s.handlers[job.Kind]
	s.mu.RUnlock()
	if !ok {
		log.Printf("[scheduler] no handler for kind %s (job %s), parking", job.Kind, id)
		s.park(ctx, id, body)
		return
	}

	if err := handler(ctx, job); err != nil {
		s.retry(ctx, job, err)
		return
	}

	if err := s.rdb.HDel(ctx, keyData, id).Err(); err != nil {
		log.Printf("[scheduler] cleanup %s: %v", id, err)
	}
}

func (s *Scheduler) retry(ctx context.Context, job domain.Job, cause error) {
	job.Attempts++
	if job.Attempts >= domain.JobMaxAttempts {
		log.Printf("[scheduler] job %s failed permanently after %d attempts: %v", job.ID, job.Attempts, cause)
		body, _ := json.Marshal(job)
		s.park(ctx, job.ID, string(body))
		return
	}

	// Exponential backoff: base, 2*base, 4*base, ...
	delay := s.backoffBase << (job.Attempts - 1)
	log.Printf("[scheduler] job %s attempt %d failed, retry in %s: %v", job.ID, job.Attempts, delay, cause)

	if err := s.put(ctx, job, s.now().Add(delay)); err != nil {
		log.Printf("[scheduler] reschedule %s: %v", job.ID, err)
	}
}

func (s *Scheduler) park(ctx context.Context, id, body string) {
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, keyDead, id, body)
	pipe.HDel(ctx, keyData, id)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[scheduler] park %s: %v", id, err)
	}
}
