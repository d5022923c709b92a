package sweeper_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bxsite/internal/lifecycle"
	"github.com/dmitrymomot/bxsite/internal/sweeper"
)

type countingTarget struct {
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (c *countingTarget) Sweep(ctx context.Context) (lifecycle.SweepStats, error) {
	c.runs.Add(1)
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return lifecycle.SweepStats{}, ctx.Err()
		}
	}
	return lifecycle.SweepStats{Checked: 2, Verified: 1, Pending: 1}, c.err
}

func TestNewRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"", "nope", "0 */5 * * * *", "61 * * * *"} {
		_, err := sweeper.New(&countingTarget{}, spec)
		require.ErrorIs(t, err, sweeper.ErrInvalidSchedule, spec)
	}

	for _, spec := range []string{"*/5 * * * *", "@hourly", "@every 10m"} {
		_, err := sweeper.New(&countingTarget{}, spec)
		require.NoError(t, err, spec)
	}
}

func TestRunOnce(t *testing.T) {
	t.Parallel()

	target := &countingTarget{}
	s, err := sweeper.New(target, "@hourly")
	require.NoError(t, err)

	stats, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SweepStats{Checked: 2, Verified: 1, Pending: 1}, stats)
	assert.EqualValues(t, 1, target.runs.Load())

	target.err = errors.New("scan failed")
	_, err = s.RunOnce(context.Background())
	require.ErrorIs(t, err, target.err)
}

func TestRunOnceTimeout(t *testing.T) {
	t.Parallel()

	target := &countingTarget{block: make(chan struct{})}
	s, err := sweeper.New(target, "@hourly", sweeper.WithRunTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	target := &countingTarget{}
	s, err := sweeper.New(target, "@every 1s")
	require.NoError(t, err)

	require.ErrorIs(t, s.Stop(context.Background()), sweeper.ErrNotStarted)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.ErrorIs(t, s.Start(ctx), sweeper.ErrAlreadyStarted)

	// Cancelling the start context does not stop scheduled runs.
	cancel()

	require.Eventually(t, func() bool { return target.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, s.Shutdown()(stopCtx))

	runs := target.runs.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, runs, target.runs.Load(), "no runs after stop")
}
