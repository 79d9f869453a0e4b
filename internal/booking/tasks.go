package booking

import (
	"context"
	"time"
)

// Offsets before the reservation start at which deferred tasks fire.
const (
	ReminderLead   = 60 * time.Minute
	AutoCancelLead = 15 * time.Minute
)

// TaskKind names a deferred action on a reservation.
type TaskKind string

const (
	TaskReminder   TaskKind = "reminder"
	TaskAutoCancel TaskKind = "auto_cancel"
)

// Task is a deferred action scheduled for an absolute time.  StartsAt is
// the reservation start the task was computed from; a task whose
// reservation has since moved is stale and does nothing.  Handle is set
// by the Scheduler on the task it fires and must match the handle stored
// on the reservation, which catches tasks superseded by a reschedule
// even when the start later moves back.
type Task struct {
	Kind          TaskKind  `json:"kind"`
	ReservationID uint64    `json:"reservation_id"`
	StartsAt      time.Time `json:"starts_at"`
	RunAt         time.Time `json:"run_at"`
	Handle        string    `json:"handle,omitempty"`
}

// Scheduler runs tasks at or after their RunAt time.  Schedule returns a
// handle that Cancel accepts and that is set as Handle on the fired task.  Implementations that cannot withdraw a
// task may treat Cancel as a no-op; fired tasks re-check state.
type Scheduler interface {
	Schedule(ctx context.Context, t Task) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// TaskRunner executes a fired task.
type TaskRunner interface {
	RunTask(ctx context.Context, t Task) error
}

// plannedTasks returns the tasks for a reservation starting at start,
// leaving out those whose run time is not after now.  Confirmed
// reservations get no auto-cancel.
func plannedTasks(id uint64, start, now time.Time, confirmed bool) []Task {
	candidates := []Task{
		{Kind: TaskReminder, ReservationID: id, StartsAt: start, RunAt: start.Add(-ReminderLead)},
	}
	if !confirmed {
		candidates = append(candidates, Task{Kind: TaskAutoCancel, ReservationID: id, StartsAt: start, RunAt: start.Add(-AutoCancelLead)})
	}
	out := candidates[:0]
	for _, t := range candidates {
		if t.RunAt.After(now) {
			out = append(out, t)
		}
	}
	return out
}
