package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerAfterRunsOnce(t *testing.T) {
	s := New(context.Background())
	defer s.Stop()

	var runs atomic.Int32
	require.True(t, s.After("once", 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}))

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(1), runs.Load())
}

func TestSchedulerEveryRepeats(t *testing.T) {
	s := New(context.Background())

	var runs atomic.Int32
	s.Every("tick", 5*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, after, runs.Load())
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	s := New(context.Background())

	var runs atomic.Int32
	s.After("late", time.Hour, func(ctx context.Context) {
		runs.Add(1)
	})

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	require.Equal(t, int32(0), runs.Load())
	require.Error(t, s.Context().Err())
}

func TestSchedulerDropsTasksAfterStop(t *testing.T) {
	s := New(context.Background())
	s.Stop()
	s.Stop()

	require.False(t, s.Go("dropped", func(ctx context.Context) {
		t.Error("task must not run after Stop")
	}))
}

func TestSchedulerGoSeesCancellation(t *testing.T) {
	s := New(context.Background())

	started := make(chan struct{})
	var cancelled atomic.Bool
	s.Go("blocking", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	})

	<-started
	s.Stop()
	require.True(t, cancelled.Load())
}
