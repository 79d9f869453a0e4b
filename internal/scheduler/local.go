// Package scheduler runs deferred reservation tasks and periodic
// housekeeping inside the server process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
)

const taskTimeout = 30 * time.Second

// Local implements booking.Scheduler with gocron one-time jobs.  Jobs
// live in memory, so tasks pending at shutdown are lost; use the AMQP
// scheduler when tasks must outlive the process.
type Local struct {
	s gocron.Scheduler

	mu     sync.RWMutex
	runner booking.TaskRunner
}

// NewLocal creates a stopped scheduler.  workers caps how many tasks run
// at once; 0 means no limit.
func NewLocal(workers int, loc *time.Location) (*Local, error) {
	opts := []gocron.SchedulerOption{gocron.WithLocation(loc)}
	if workers > 0 {
		opts = append(opts, gocron.WithLimitConcurrentJobs(uint(workers), gocron.LimitModeWait))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}
	return &Local{s: s}, nil
}

// Start sets the runner fired tasks are handed to and starts the
// scheduler.
func (l *Local) Start(runner booking.TaskRunner) {
	l.mu.Lock()
	l.runner = runner
	l.mu.Unlock()
	l.s.Start()
}

// Shutdown stops the scheduler and waits for running tasks.
func (l *Local) Shutdown() error { return l.s.Shutdown() }

// Schedule registers a one-time job at t.RunAt and returns the job ID,
// which the fired task carries as its Handle.
func (l *Local) Schedule(_ context.Context, t booking.Task) (string, error) {
	id := uuid.New()
	t.Handle = id.String()
	job, err := l.s.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(t.RunAt)),
		gocron.NewTask(l.run, t),
		gocron.WithName(fmt.Sprintf("%s:%d", t.Kind, t.ReservationID)),
		gocron.WithIdentifier(id),
	)
	if err != nil {
		return "", err
	}
	return job.ID().String(), nil
}

// Cancel removes a job.  Unknown or already finished jobs are ignored.
func (l *Local) Cancel(_ context.Context, handle string) error {
	id, err := uuid.Parse(handle)
	if err != nil {
		return fmt.Errorf("task handle %q: %w", handle, err)
	}
	if err := l.s.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return err
	}
	return nil
}

func (l *Local) run(t booking.Task) {
	l.mu.RLock()
	runner := l.runner
	l.mu.RUnlock()
	if runner == nil {
		log.Printf("scheduler: no runner for %s task of reservation %d", t.Kind, t.ReservationID)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()
	if err := runner.RunTask(ctx, t); err != nil {
		log.Printf("scheduler: %s task for reservation %d failed: %v", t.Kind, t.ReservationID, err)
	}
}
