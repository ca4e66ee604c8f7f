package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Task is a unit of scheduled work. The context is cancelled when the
// scheduler stops.
type Task func(ctx context.Context)

// Scheduler runs one-shot and repeating tasks for the lifetime of a session.
// Tasks started before Stop are cancelled by it; tasks scheduled after Stop
// are dropped.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	eg     errgroup.Group
	logger zerolog.Logger

	mu      sync.Mutex
	stopped bool
}

func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		logger: log.Logger.With().Str("component", "scheduler").Logger(),
	}
}

// Context is cancelled once the scheduler stops.
func (s *Scheduler) Context() context.Context { return s.ctx }

// Go runs task immediately on its own goroutine.
func (s *Scheduler) Go(name string, task Task) bool {
	return s.spawn(name, func(ctx context.Context) {
		task(ctx)
	})
}

// After runs task once after delay, unless the scheduler stops first.
func (s *Scheduler) After(name string, delay time.Duration, task Task) bool {
	return s.spawn(name, func(ctx context.Context) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		task(ctx)
	})
}

// Every runs task every interval until the scheduler stops. The first run
// happens after one interval. There is no backoff and no retry limit.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) bool {
	return s.spawn(name, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				task(ctx)
			}
		}
	})
}

func (s *Scheduler) spawn(name string, run func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Debug().Str("task", name).Msg("scheduler stopped, dropping task")
		return false
	}
	s.eg.Go(func() error {
		s.logger.Trace().Str("task", name).Msg("task scheduled")
		run(s.ctx)
		return nil
	})
	return true
}

// Stop cancels every pending and running task and waits for them to return.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	_ = s.eg.Wait()
}
