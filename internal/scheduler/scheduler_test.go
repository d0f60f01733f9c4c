package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepump-screener/internal/domain"
	"prepump-screener/internal/usecase"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunCycle(context.Context) (domain.ScanRun, error) {
	r.calls.Add(1)
	return domain.ScanRun{ID: "run"}, r.err
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(context.Background(), &countingRunner{}, nil)
	assert.Error(t, s.Register("not a cron"))
	// five-field specs lack the seconds field
	assert.Error(t, s.Register("*/15 * * * *"))
	assert.NoError(t, s.Register("0 */15 * * * *"))
}

func TestRunNowToleratesBusyCycle(t *testing.T) {
	runner := &countingRunner{err: usecase.ErrCycleInProgress}
	s := New(context.Background(), runner, nil)
	s.RunNow()
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestRunNowSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &countingRunner{}
	New(ctx, runner, nil).RunNow()
	assert.Zero(t, runner.calls.Load())
}

func TestScheduledTicks(t *testing.T) {
	runner := &countingRunner{}
	s := New(context.Background(), runner, nil)
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
