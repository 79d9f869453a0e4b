package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
)

type chanRunner struct{ ch chan booking.Task }

func (r chanRunner) RunTask(_ context.Context, t booking.Task) error {
	r.ch <- t
	return nil
}

func newStarted(t *testing.T) (*Local, chan booking.Task) {
	t.Helper()
	l, err := NewLocal(2, time.UTC)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	ch := make(chan booking.Task, 4)
	l.Start(chanRunner{ch: ch})
	t.Cleanup(func() { _ = l.Shutdown() })
	return l, ch
}

func TestLocal_RunsTaskAtRunAt(t *testing.T) {
	l, ch := newStarted(t)
	want := booking.Task{Kind: booking.TaskReminder, ReservationID: 3, RunAt: time.Now().Add(100 * time.Millisecond)}

	handle, err := l.Schedule(context.Background(), want)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if handle == "" {
		t.Fatalf("expected a handle")
	}
	select {
	case got := <-ch:
		if got.ReservationID != 3 || got.Kind != booking.TaskReminder || got.Handle != handle {
			t.Fatalf("unexpected task %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("task did not run")
	}
}

func TestLocal_CancelledTaskDoesNotRun(t *testing.T) {
	l, ch := newStarted(t)
	handle, err := l.Schedule(context.Background(), booking.Task{Kind: booking.TaskAutoCancel, ReservationID: 4, RunAt: time.Now().Add(300 * time.Millisecond)})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := l.Cancel(context.Background(), handle); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := l.Cancel(context.Background(), handle); err != nil {
		t.Fatalf("second cancel must be ignored: %v", err)
	}
	select {
	case got := <-ch:
		t.Fatalf("cancelled task ran: %+v", got)
	case <-time.After(700 * time.Millisecond):
	}
	if err := l.Cancel(context.Background(), "not-a-uuid"); err == nil {
		t.Fatalf("expected error for malformed handle")
	}
}

type countingPurger struct {
	mu     sync.Mutex
	calls  int
	cutoff time.Time
}

func (p *countingPurger) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.cutoff = before
	return 2, nil
}

func TestPurgeTokens_UsesRetentionCutoff(t *testing.T) {
	p := &countingPurger{}
	purgeTokens(p)
	if p.calls != 1 {
		t.Fatalf("expected one call, got %d", p.calls)
	}
	if age := time.Since(p.cutoff); age < revokedRetention-time.Minute || age > revokedRetention+time.Minute {
		t.Fatalf("unexpected cutoff age %v", age)
	}
}

func TestStartTokenCleanup_RejectsBadSpec(t *testing.T) {
	if _, err := StartTokenCleanup("every tuesday", &countingPurger{}); err == nil {
		t.Fatalf("expected spec error")
	}
	c, err := StartTokenCleanup("@hourly", &countingPurger{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Stop()
}
