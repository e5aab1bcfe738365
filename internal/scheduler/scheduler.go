package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// SessionSweeper is the part of the session store the sweeper needs.
type SessionSweeper interface {
	Sweep(cutoff time.Time) int
	Len() int
}

// Scheduler periodically evicts idle chat sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     SessionSweeper
	interval  time.Duration
	retention time.Duration
	now       func() time.Time

	stopOnce sync.Once
}

// New creates a new Scheduler. Non-positive durations fall back to 30m and 1h.
func New(store SessionSweeper, interval, retention time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if retention <= 0 {
		retention = time.Hour
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(func() {
		s.Sweep()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logrus.WithFields(logrus.Fields{
		"interval":  s.interval.String(),
		"retention": s.retention.String(),
	}).Info("scheduler: session sweeper started")
	return nil
}

// Sweep runs one eviction pass and returns the number of removed sessions.
// A panic inside the pass is logged and reported as zero removals.
func (s *Scheduler) Sweep() (removed int) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("scheduler: session sweep failed")
			removed = 0
		}
	}()

	removed = s.store.Sweep(s.now().Add(-s.retention))
	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": s.store.Len(),
		}).Info("scheduler: evicted idle sessions")
	}
	return removed
}

// Stop stops the scheduler and cancels any future jobs. It is safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.scheduler != nil {
			s.scheduler.Stop()
		}
	})
}
