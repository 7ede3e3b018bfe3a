package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sjperalta/fintera-rentals/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs fire-and-forget jobs and named scheduled jobs
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	asyncSem      chan struct{}
	maxConcurrent int
	stats         WorkerStats
	scheduled     map[string]*ScheduledJobStats
	statsMu       sync.RWMutex
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int                 `json:"active_jobs"`
	CompletedJobs int64               `json:"completed_jobs"`
	FailedJobs    int64               `json:"failed_jobs"`
	QueueLength   int                 `json:"queue_length"`
	MaxConcurrent int                 `json:"max_concurrent"`
	Scheduled     []ScheduledJobStats `json:"scheduled"`
	LastRun       *time.Time          `json:"last_run"`
}

// ScheduledJobStats describes one named scheduled job
type ScheduledJobStats struct {
	Name      string     `json:"name"`
	Interval  string     `json:"interval"`
	Runs      int64      `json:"runs"`
	LastRun   *time.Time `json:"last_run"`
	LastError string     `json:"last_error,omitempty"`
}

// NewWorker creates a worker allowing maxConcurrent async jobs at once
func NewWorker(maxConcurrent int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Worker{
		ctx:           ctx,
		cancel:        cancel,
		asyncSem:      make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
		scheduled:     make(map[string]*ScheduledJobStats),
	}
}

// EnqueueAsync runs a job in a new goroutine (fire-and-forget), bounded by semaphore
func (w *Worker) EnqueueAsync(name string, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		// Acquire semaphore to limit concurrency
		w.trackQueued(1)
		select {
		case w.asyncSem <- struct{}{}:
			w.trackQueued(-1)
		case <-w.ctx.Done():
			w.trackQueued(-1)
			return
		}
		defer func() { <-w.asyncSem }()

		w.run(fmt.Sprintf("[Worker] %s", name), job)
	}()
}

// ScheduleEvery runs a named job at fixed intervals. With immediate set the first
// run happens at startup instead of after the first interval.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, immediate bool, job Job) {
	w.statsMu.Lock()
	w.scheduled[name] = &ScheduledJobStats{Name: name, Interval: interval.String()}
	w.statsMu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.runScheduled(name, job)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.runScheduled(name, job)
			}
		}
	}()
}

func (w *Worker) runScheduled(name string, job Job) {
	err := w.run(fmt.Sprintf("[Scheduler] %s", name), job)

	now := time.Now()
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	s := w.scheduled[name]
	s.Runs++
	s.LastRun = &now
	s.LastError = ""
	if err != nil {
		s.LastError = err.Error()
	}
}

// run executes job, recovering panics and keeping statistics
func (w *Worker) run(label string, job Job) (err error) {
	w.trackJobStart()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			logger.Error(fmt.Sprintf("%s job error: %v", label, err))
			w.trackJobFailure()
		} else {
			logger.Info(fmt.Sprintf("%s job completed in %v", label, time.Since(start)))
		}
		w.trackJobEnd()
	}()

	return job(w.ctx)
}

// Shutdown cancels running jobs and waits for them to return
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.MaxConcurrent = w.maxConcurrent
	stats.Scheduled = make([]ScheduledJobStats, 0, len(w.scheduled))
	for _, s := range w.scheduled {
		stats.Scheduled = append(stats.Scheduled, *s)
	}
	sort.Slice(stats.Scheduled, func(i, j int) bool { return stats.Scheduled[i].Name < stats.Scheduled[j].Name })
	return stats
}

// trackQueued counts async jobs waiting for a free slot
func (w *Worker) trackQueued(delta int) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.QueueLength += delta
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

// trackJobEnd counts every finished job; failures are also counted in FailedJobs
func (w *Worker) trackJobEnd() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	now := time.Now()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	w.stats.LastRun = &now
}

func (w *Worker) trackJobFailure() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.FailedJobs++
}
