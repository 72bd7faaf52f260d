package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

type countingJob struct {
	calls atomic.Int32
	err   error
}

func (j *countingJob) Execute(ctx context.Context) (int, error) {
	j.calls.Add(1)
	return 1, j.err
}

func TestSchedulerManager_RegistersJobs(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNop())
	require.NoError(t, err)

	complete := &countingJob{}
	prune := &countingJob{}
	require.NoError(t, m.RegisterBookingJobs(complete, time.Hour))
	require.NoError(t, m.RegisterLedgerJobs(prune))

	names := make([]string, 0, 2)
	for _, j := range m.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"booking-completion", "webhook-ledger-prune"}, names)

	m.Start()
	assert.True(t, m.IsStarted())

	assert.Eventually(t, func() bool { return complete.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond,
		"completion runs immediately")
	assert.Zero(t, prune.calls.Load(), "pruning waits for its cron slot")

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}

func TestSchedulerManager_RunBatchSwallowsErrors(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNop())
	require.NoError(t, err)

	job := &countingJob{err: errors.New("database unavailable")}
	m.runBatch(context.Background(), "failing", job)
	assert.Equal(t, int32(1), job.calls.Load())
}
