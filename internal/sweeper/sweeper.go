// Package sweeper periodically re-checks custom domains that are still
// waiting for DNS verification.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/bxsite/internal/lifecycle"
	"github.com/dmitrymomot/bxsite/pkg/logger"
)

const DefaultRunTimeout = 5 * time.Minute

var (
	ErrAlreadyStarted  = errors.New("sweeper: already started")
	ErrNotStarted      = errors.New("sweeper: not started")
	ErrInvalidSchedule = errors.New("sweeper: invalid schedule")
)

// Parser accepts five-field cron specs and descriptors such as @hourly.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Target runs one sweep. *lifecycle.Manager satisfies it.
type Target interface {
	Sweep(ctx context.Context) (lifecycle.SweepStats, error)
}

// Sweeper runs Target.Sweep on a cron schedule. Overlapping runs are
// skipped.
type Sweeper struct {
	target     Target
	cron       *cron.Cron
	logger     *slog.Logger
	baseCtx    context.Context
	cancel     context.CancelFunc
	schedule   string
	runTimeout time.Duration
	mu         sync.Mutex
	started    bool
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunTimeout bounds a single sweep.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// New creates a Sweeper for schedule.
func New(target Target, schedule string, opts ...Option) (*Sweeper, error) {
	s := &Sweeper{
		target:     target,
		schedule:   schedule,
		logger:     logger.NewNope(),
		runTimeout: DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	sched, err := Parser.Parse(schedule)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, fmt.Errorf("%q: %w", schedule, err))
	}

	cl := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithParser(Parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.cron.Schedule(sched, cron.FuncJob(s.tick))
	return s, nil
}

// Start begins scheduling. Sweeps run under a context derived from ctx
// but detached from its cancellation; Stop ends them.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.started = true
	s.cron.Start()

	s.logger.Info("pending domain sweeper started", slog.String("schedule", s.schedule))
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish or ctx to
// end, whichever comes first. A sweep still running then is cancelled.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	var err error
	select {
	case <-done.Done():
	case <-ctx.Done():
		err = fmt.Errorf("sweeper: stop: %w", ctx.Err())
	}
	cancel()

	s.logger.Info("pending domain sweeper stopped")
	return err
}

// Shutdown returns a shutdown hook that stops the sweeper.
func (s *Sweeper) Shutdown() func(context.Context) error {
	return s.Stop
}

// RunOnce performs a single sweep with the configured run timeout.
func (s *Sweeper) RunOnce(ctx context.Context) (lifecycle.SweepStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()
	stats, err := s.target.Sweep(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "pending domain sweep failed",
			slog.Any("error", err),
			slog.Int("checked", stats.Checked))
		return stats, err
	}

	s.logger.InfoContext(ctx, "pending domain sweep completed",
		slog.Int("checked", stats.Checked),
		slog.Int("verified", stats.Verified),
		slog.Int("pending", stats.Pending),
		slog.Int("failed", stats.Failed),
		slog.Duration("took", time.Since(start)))
	return stats, nil
}

func (s *Sweeper) tick() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		return
	}
	_, _ = s.RunOnce(ctx)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
