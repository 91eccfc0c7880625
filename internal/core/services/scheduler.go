package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// TaskFunc runs one scheduled task and reports how many items it processed.
type TaskFunc func(ctx context.Context) (int, error)

// TaskStatus is the state of a scheduled task after its latest run.
type TaskStatus struct {
	Name        string
	Interval    time.Duration
	Runs        int
	LastRun     time.Time
	LastSuccess time.Time
	LastError   string
	LastItems   int
	NextRun     time.Time
}

type scheduledTask struct {
	status TaskStatus
	run    TaskFunc
}

// Scheduler runs tasks at fixed intervals in the background.
// A task never overlaps with itself; a run that is still going when the
// next tick arrives delays the following run.
type Scheduler struct {
	mu      sync.Mutex
	tasks   []*scheduledTask
	tick    time.Duration
	now     func() time.Time
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that checks for due tasks every tick.
func NewScheduler(tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{tick: tick, now: time.Now}
}

// Add registers a task. The first run is one interval after Start.
func (s *Scheduler) Add(name string, interval time.Duration, run TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, &scheduledTask{
		status: TaskStatus{Name: name, Interval: interval},
		run:    run,
	})
}

// Status returns a snapshot of every task's state.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskStatus, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.status
	}
	return out
}

// Start runs the scheduler loop. It blocks until Stop is called or the
// context is cancelled, then waits for running tasks to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	start := s.now()
	for _, t := range s.tasks {
		t.status.NextRun = start.Add(t.status.Interval)
	}
	stopCh := s.stopCh
	s.mu.Unlock()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return nil
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the scheduler loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// runDue starts every enabled task whose next run has passed.
func (s *Scheduler) runDue(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, t := range s.tasks {
		if t.status.Interval <= 0 || now.Before(t.status.NextRun) {
			continue
		}
		// Pushed far out until the run finishes so ticks don't overlap it.
		t.status.NextRun = now.Add(24 * 365 * time.Hour)
		s.wg.Add(1)
		go s.runTask(ctx, t)
	}
}

func (s *Scheduler) runTask(ctx context.Context, t *scheduledTask) {
	defer s.wg.Done()

	started := s.now()
	items, err := t.run(ctx)
	ended := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	t.status.Runs++
	t.status.LastRun = started
	t.status.LastItems = items
	t.status.NextRun = ended.Add(t.status.Interval)
	if err != nil {
		t.status.LastError = err.Error()
		logger.Warn("Scheduled task %s failed: %v", t.status.Name, err)
		return
	}
	t.status.LastError = ""
	t.status.LastSuccess = ended
	logger.Info("Scheduled task %s processed %d items in %s", t.status.Name, items, ended.Sub(started))
}

// RebuildTask adapts an index rebuild to a scheduled task.
func RebuildTask(index driving.IndexService) TaskFunc {
	return func(ctx context.Context) (int, error) {
		report, err := index.Rebuild(ctx)
		if report == nil {
			return 0, err
		}
		return report.Processed, err
	}
}
