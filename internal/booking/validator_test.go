package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func existing(id uint64, clock string, minutes int, status model.ReservationStatus) model.Reservation {
	return model.Reservation{ID: id, UserID: 9, TableID: 5, Date: "2025-06-01", Time: clock, Duration: minutes, Status: status}
}

func TestValidateCreate(t *testing.T) {
	x := []model.Reservation{existing(1, "19:00", 60, model.ReservationPending)}
	base := CreateRequest{UserID: 1, TableID: 5, Date: "2025-06-01", Time: "20:00", Duration: 30}

	cases := []struct {
		name   string
		mutate func(*CreateRequest)
		active int
		rows   []model.Reservation
		want   error
	}{
		{"adjacent accepted", nil, 0, x, nil},
		{"overlap rejected", func(r *CreateRequest) { r.Time = "19:30" }, 0, x, ErrTimeConflict},
		{"cancelled rows ignored", func(r *CreateRequest) { r.Time = "19:30" }, 0,
			[]model.Reservation{existing(1, "19:00", 60, model.ReservationCancelled)}, nil},
		{"missing table", func(r *CreateRequest) { r.TableID = 0 }, 0, nil, ErrMissingFields},
		{"missing time", func(r *CreateRequest) { r.Time = "" }, 0, nil, ErrMissingFields},
		{"zero duration", func(r *CreateRequest) { r.Duration = 0 }, 0, nil, ErrInvalidDuration},
		{"huge duration", func(r *CreateRequest) { r.Time = "18:00"; r.Duration = 200000000 }, 0, x, ErrInvalidDuration},
		{"longer than a day", func(r *CreateRequest) { r.Time = "00:00"; r.Duration = MaxDuration + 1 }, 0, nil, ErrInvalidDuration},
		{"whole day", func(r *CreateRequest) { r.Time = "00:00"; r.Duration = MaxDuration }, 0, nil, nil},
		{"ends at midnight", func(r *CreateRequest) { r.Time = "23:00"; r.Duration = 60 }, 0, nil, nil},
		{"runs past midnight", func(r *CreateRequest) { r.Time = "23:00"; r.Duration = 180 }, 0, nil, ErrPastMidnight},
		{"bad date", func(r *CreateRequest) { r.Date = "01/06/2025" }, 0, nil, ErrInvalidDate},
		{"limit reached", nil, 3, nil, ErrActiveLimit},
		{"limit before conflict", func(r *CreateRequest) { r.Time = "19:30" }, 3, x, ErrActiveLimit},
		{"below limit", nil, 2, nil, nil},
	}
	for _, tc := range cases {
		req := base
		if tc.mutate != nil {
			tc.mutate(&req)
		}
		err := ValidateCreate(req, tc.active, tc.rows, time.UTC)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}
}

func TestValidateUpdate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cur := existing(2, "18:00", 60, model.ReservationPending)
	others := []model.Reservation{cur, existing(1, "19:00", 60, model.ReservationConfirmed)}

	newTime := "18:30"
	if err := ValidateUpdate(cur, UpdateRequest{Time: &newTime}.Merge(cur), now, others, time.UTC); !errors.Is(err, ErrTimeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	longer := 90
	if err := ValidateUpdate(cur, UpdateRequest{Duration: &longer}.Merge(cur), now, others[:1], time.UTC); err != nil {
		t.Fatalf("own row must be excluded, got %v", err)
	}

	cancelled := cur
	cancelled.Status = model.ReservationCancelled
	if err := ValidateUpdate(cancelled, cancelled, now, nil, time.UTC); !errors.Is(err, ErrModifyCancelled) {
		t.Fatalf("expected ErrModifyCancelled, got %v", err)
	}

	atStart := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	if err := ValidateUpdate(cur, cur, atStart, nil, time.UTC); !errors.Is(err, ErrModifyPast) {
		t.Fatalf("expected ErrModifyPast, got %v", err)
	}

	zero := 0
	if err := ValidateUpdate(cur, UpdateRequest{Duration: &zero}.Merge(cur), now, nil, time.UTC); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}

	huge := 200000000
	if err := ValidateUpdate(cur, UpdateRequest{Duration: &huge}.Merge(cur), now, others, time.UTC); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("overflowing duration: expected ErrInvalidDuration, got %v", err)
	}

	late, long := "23:30", 60
	if err := ValidateUpdate(cur, UpdateRequest{Time: &late, Duration: &long}.Merge(cur), now, nil, time.UTC); !errors.Is(err, ErrPastMidnight) {
		t.Fatalf("expected ErrPastMidnight, got %v", err)
	}
}

func TestValidateCancel_Boundaries(t *testing.T) {
	r := existing(1, "19:00", 60, model.ReservationConfirmed)
	start := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

	if err := ValidateCancel(r, start.Add(-30*time.Minute), time.UTC); !errors.Is(err, ErrCancelCutoff) {
		t.Fatalf("exactly 30 minutes before: got %v", err)
	}
	if err := ValidateCancel(r, start.Add(-30*time.Minute-time.Second), time.UTC); err != nil {
		t.Fatalf("30 minutes and a second before: got %v", err)
	}
	if err := ValidateCancel(r, start, time.UTC); !errors.Is(err, ErrCancelPast) {
		t.Fatalf("at start: got %v", err)
	}
	r.Status = model.ReservationCancelled
	if err := ValidateCancel(r, start.Add(-2*time.Hour), time.UTC); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("already cancelled: got %v", err)
	}
}

func TestPlannedTasks(t *testing.T) {
	start := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

	got := plannedTasks(1, start, start.Add(-2*time.Hour), false)
	if len(got) != 2 || got[0].Kind != TaskReminder || got[1].Kind != TaskAutoCancel {
		t.Fatalf("expected reminder and auto-cancel, got %+v", got)
	}
	if !got[0].RunAt.Equal(start.Add(-time.Hour)) || !got[1].RunAt.Equal(start.Add(-15*time.Minute)) {
		t.Fatalf("unexpected run times %v %v", got[0].RunAt, got[1].RunAt)
	}

	got = plannedTasks(1, start, start.Add(-30*time.Minute), false)
	if len(got) != 1 || got[0].Kind != TaskAutoCancel {
		t.Fatalf("expected auto-cancel only, got %+v", got)
	}

	if got = plannedTasks(1, start, start.Add(-15*time.Minute), false); len(got) != 0 {
		t.Fatalf("run time equal to now must not be scheduled, got %+v", got)
	}

	got = plannedTasks(1, start, start.Add(-2*time.Hour), true)
	if len(got) != 1 || got[0].Kind != TaskReminder {
		t.Fatalf("confirmed reservations get a reminder only, got %+v", got)
	}
}
