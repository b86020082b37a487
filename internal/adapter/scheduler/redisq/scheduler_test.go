package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntdung97/spacebook/internal/core/domain"
)

func newTestScheduler(t *testing.T) (*Scheduler, redismock.ClientMock, time.Time) {
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	s := New(db)
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }
	return s, mock, frozen
}

func mustJob(t *testing.T, id, kind string) (domain.Job, []byte) {
	job, err := domain.NewJob(id, kind, domain.BookingJobPayload{
		BookingID: uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10"),
		ExpiredAt: time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	body, err := json.Marshal(job)
	require.NoError(t, err)
	return job, body
}

func TestSchedule_RejectsNonPositiveDelay(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	job, _ := mustJob(t, "expired-b1", domain.JobKindExpireBooking)

	assert.ErrorIs(t, s.Schedule(context.Background(), job, 0), ErrNonPositiveDelay)
	assert.ErrorIs(t, s.Schedule(context.Background(), job, -time.Second), ErrNonPositiveDelay)
}

func TestSchedule_WritesScoreAndBody(t *testing.T) {
	s, mock, frozen := newTestScheduler(t)
	job, body := mustJob(t, "expired-b1", domain.JobKindExpireBooking)

	fireAt := frozen.Add(30 * time.Minute)
	mock.ExpectTxPipeline()
	mock.ExpectZAdd(keyScheduled, redis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: job.ID,
	}).SetVal(1)
	mock.ExpectHSet(keyData, job.ID, body).SetVal(1)
	mock.ExpectTxPipelineExec()

	assert.NoError(t, s.Schedule(context.Background(), job, 30*time.Minute))
}

func TestEnqueue_FiresImmediately(t *testing.T) {
	s, mock, frozen := newTestScheduler(t)
	job, body := mustJob(t, "notify-email-n1", domain.JobKindNotifyEmail)

	mock.ExpectTxPipeline()
	mock.ExpectZAdd(keyScheduled, redis.Z{
		Score:  float64(frozen.UnixMilli()),
		Member: job.ID,
	}).SetVal(1)
	mock.ExpectHSet(keyData, job.ID, body).SetVal(1)
	mock.ExpectTxPipelineExec()

	assert.NoError(t, s.Enqueue(context.Background(), job))
}

func TestCancel_UnknownJobIsNoOp(t *testing.T) {
	s, mock, _ := newTestScheduler(t)

	mock.ExpectTxPipeline()
	mock.ExpectZRem(keyScheduled, "expired-gone").SetVal(0)
	mock.ExpectHDel(keyData, "expired-gone").SetVal(0)
	mock.ExpectTxPipelineExec()

	assert.NoError(t, s.Cancel(context.Background(), "expired-gone"))
}

func TestProcessDue_SkipsJobClaimedElsewhere(t *testing.T) {
	s, mock, frozen := newTestScheduler(t)

	mock.ExpectZRangeByScore(keyScheduled, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", frozen.UnixMilli()),
		Count: 100,
	}).SetVal([]string{"expired-b1"})
	// Another worker won the ZREM race; no load, no dispatch.
	mock.ExpectZRem(keyScheduled, "expired-b1").SetVal(0)

	s.processDue(context.Background())
}

func TestProcessDue_DispatchesAndCleansUp(t *testing.T) {
	s, mock, frozen := newTestScheduler(t)
	job, body := mustJob(t, "expired-b1", domain.JobKindExpireBooking)

	var handled []string
	s.Register(domain.JobKindExpireBooking, func(ctx context.Context, j domain.Job) error {
		handled = append(handled, j.ID)
		return nil
	})

	mock.ExpectZRangeByScore(keyScheduled, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", frozen.UnixMilli()),
		Count: 100,
	}).SetVal([]string{job.ID})
	mock.ExpectZRem(keyScheduled, job.ID).SetVal(1)
	mock.ExpectHGet(keyData, job.ID).SetVal(string(body))
	mock.ExpectHDel(keyData, job.ID).SetVal(1)

	s.processDue(context.Background())

	assert.Equal(t, []string{job.ID}, handled)
}

func TestProcessDue_FailureReschedulesWithBackoff(t *testing.T) {
	s, mock, frozen := newTestScheduler(t)
	job, body := mustJob(t, "notify-sms-n1", domain.JobKindNotifySMS)

	s.Register(domain.JobKindNotifySMS, func(ctx context.Context, j domain.Job) error {
		return errors.New("gateway timeout")
	})

	retried := job
	retried.Attempts = 1
	retriedBody, err := json.Marshal(retried)
	require.NoError(t, err)

	mock.ExpectZRangeByScore(keyScheduled, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", frozen.UnixMilli()),
		Count: 100,
	}).SetVal([]string{job.ID})
	mock.ExpectZRem(keyScheduled, job.ID).SetVal(1)
	mock.ExpectHGet(keyData, job.ID).SetVal(string(body))

	// First retry lands one backoff unit out.
	mock.ExpectTxPipeline()
	mock.ExpectZAdd(keyScheduled, redis.Z{
		Score:  float64(frozen.Add(5 * time.Second).UnixMilli()),
		Member: job.ID,
	}).SetVal(1)
	mock.ExpectHSet(keyData, job.ID, retriedBody).SetVal(0)
	mock.ExpectTxPipelineExec()

	s.processDue(context.Background())
}

func TestProcessDue_ParksAfterFinalAttempt(t *testing.T) {
	s, mock, frozen := newTestScheduler(t)
	job, _ := mustJob(t, "notify-email-n1", domain.JobKindNotifyEmail)
	job.Attempts = domain.JobMaxAttempts - 1
	body, err := json.Marshal(job)
	require.NoError(t, err)

	s.Register(domain.JobKindNotifyEmail, func(ctx context.Context, j domain.Job) error {
		return errors.New("smtp refused")
	})

	dead := job
	dead.Attempts = domain.JobMaxAttempts
	deadBody, err := json.Marshal(dead)
	require.NoError(t, err)

	mock.ExpectZRangeByScore(keyScheduled, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", frozen.UnixMilli()),
		Count: 100,
	}).SetVal([]string{job.ID})
	mock.ExpectZRem(keyScheduled, job.ID).SetVal(1)
	mock.ExpectHGet(keyData, job.ID).SetVal(string(body))

	mock.ExpectTxPipeline()
	mock.ExpectHSet(keyDead, job.ID, string(deadBody)).SetVal(1)
	mock.ExpectHDel(keyData, job.ID).SetVal(1)
	mock.ExpectTxPipelineExec()

	s.processDue(context.Background())
}

func TestFire_MissingBodyAfterCancel(t *testing.T) {
	s, mock, _ := newTestScheduler(t)

	mock.ExpectHGet(keyData, "expired-gone").RedisNil()

	s.fire(context.Background(), "expired-gone")
}
