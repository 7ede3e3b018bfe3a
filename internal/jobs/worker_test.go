package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_EnqueueAsyncTracksFailuresAndPanics(t *testing.T) {
	w := NewWorker(2)

	done := make(chan struct{}, 3)
	w.EnqueueAsync("ok", func(ctx context.Context) error { done <- struct{}{}; return nil })
	w.EnqueueAsync("fails", func(ctx context.Context) error { done <- struct{}{}; return errors.New("boom") })
	w.EnqueueAsync("panics", func(ctx context.Context) error { done <- struct{}{}; panic("bad") })

	for i := 0; i < 3; i++ {
		<-done
	}
	w.Shutdown()

	stats := w.GetStats()
	assert.EqualValues(t, 3, stats.CompletedJobs)
	assert.EqualValues(t, 2, stats.FailedJobs)
	assert.Equal(t, 0, stats.ActiveJobs)
	assert.Equal(t, 2, stats.MaxConcurrent)
	assert.NotNil(t, stats.LastRun)
}

func TestWorker_ScheduleEveryImmediate(t *testing.T) {
	w := NewWorker(1)

	var runs atomic.Int32
	ran := make(chan struct{}, 1)
	w.ScheduleEvery("recognition", time.Hour, true, func(ctx context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return errors.New("2 contract(s) failed")
	})

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("immediate job did not run")
	}
	w.Shutdown()

	assert.EqualValues(t, 1, runs.Load())
	stats := w.GetStats()
	require.Len(t, stats.Scheduled, 1)
	assert.Equal(t, "recognition", stats.Scheduled[0].Name)
	assert.Equal(t, "1h0m0s", stats.Scheduled[0].Interval)
	assert.EqualValues(t, 1, stats.Scheduled[0].Runs)
	assert.Equal(t, "2 contract(s) failed", stats.Scheduled[0].LastError)
}

func TestWorker_ShutdownCancelsJobContext(t *testing.T) {
	w := NewWorker(1)

	started := make(chan struct{})
	var cancelled atomic.Bool
	w.EnqueueAsync("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})

	<-started
	w.Shutdown()
	assert.True(t, cancelled.Load())
}

func TestWorker_QueueLengthCountsWaitingJobs(t *testing.T) {
	w := NewWorker(1)

	started := make(chan struct{})
	release := make(chan struct{})
	w.EnqueueAsync("running", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	w.EnqueueAsync("waiting-1", func(ctx context.Context) error { return nil })
	w.EnqueueAsync("waiting-2", func(ctx context.Context) error { return nil })

	assert.Eventually(t, func() bool { return w.GetStats().QueueLength == 2 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, w.GetStats().ActiveJobs)

	close(release)
	assert.Eventually(t, func() bool { return w.GetStats().CompletedJobs == 3 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, w.GetStats().QueueLength)
	w.Shutdown()
}
