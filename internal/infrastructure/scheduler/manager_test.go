package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

type countingJob struct {
	calls atomic.Int32
	ctx   atomic.Value
}

func (j *countingJob) Execute(ctx context.Context) (int, error) {
	j.calls.Add(1)
	j.ctx.Store(ctx)
	return 1, nil
}

func TestSchedulerManager_RegisterTrialExpiryJob(t *testing.T) {
	m, err := NewSchedulerManager(biztime.MustLoadZone("Asia/Jakarta"), logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, m.RegisterTrialExpiryJob("0 0 * * *", &countingJob{}))

	jobs := m.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "trial-expiry-reconciliation", jobs[0].Name())
	assert.Contains(t, jobs[0].Tags(), "trial")

	m.Start()
	defer m.Stop()

	next, err := jobs[0].NextRun()
	require.NoError(t, err)
	local := next.In(biztime.MustLoadZone("Asia/Jakarta").Location())
	assert.Equal(t, 0, local.Hour(), "cron is evaluated in the reference timezone")
	assert.Equal(t, 0, local.Minute())
}

func TestSchedulerManager_RejectsInvalidCron(t *testing.T) {
	m, err := NewSchedulerManager(biztime.Zone{}, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Error(t, m.RegisterTrialExpiryJob("not a cron", &countingJob{}))
}

func TestSchedulerManager_JobContextHasNoDeadline(t *testing.T) {
	m, err := NewSchedulerManager(biztime.Zone{}, logger.NewNopLogger())
	require.NoError(t, err)

	job := &countingJob{}
	m.processExpiredTrials(m.jobCtx, job)

	require.Equal(t, int32(1), job.calls.Load())
	ctx := job.ctx.Load().(context.Context)
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)

	require.NoError(t, m.Stop())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSchedulerManager_StartAfter(t *testing.T) {
	m, err := NewSchedulerManager(biztime.Zone{}, logger.NewNopLogger())
	require.NoError(t, err)
	defer m.Stop()

	done := m.StartAfter(context.Background(), 20*time.Millisecond)
	assert.False(t, m.IsStarted())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delayed start did not complete")
	}
	assert.True(t, m.IsStarted())
}

func TestSchedulerManager_StartAfterCancelled(t *testing.T) {
	m, err := NewSchedulerManager(biztime.Zone{}, logger.NewNopLogger())
	require.NoError(t, err)
	defer m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := m.StartAfter(ctx, time.Hour)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancelled start did not return")
	}
	assert.False(t, m.IsStarted())
}

func TestSchedulerManager_StartAfterStopIsNoOp(t *testing.T) {
	m, err := NewSchedulerManager(biztime.Zone{}, logger.NewNopLogger())
	require.NoError(t, err)

	done := m.StartAfter(context.Background(), 20*time.Millisecond)
	require.NoError(t, m.Stop())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delayed start did not complete")
	}
	assert.False(t, m.IsStarted())

	m.Start()
	assert.False(t, m.IsStarted())
}
