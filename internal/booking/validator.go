package booking

import (
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

const (
	// MaxActiveReservations caps the pending or confirmed reservations a
	// user may hold at once.
	MaxActiveReservations = 3
	// CancelCutoff is how close to the start a reservation can no longer
	// be cancelled.
	CancelCutoff = 30 * time.Minute
	// MaxDuration is the longest reservation in minutes.
	MaxDuration = 24 * 60
)

// CreateRequest carries the fields of a new reservation.
type CreateRequest struct {
	UserID   uint64
	TableID  uint64
	Date     string
	Time     string
	Duration int
}

// UpdateRequest carries the fields of a partial update.  Nil fields keep
// their current value.
type UpdateRequest struct {
	Date     *string
	Time     *string
	Duration *int
}

// Merge returns r with the provided fields of u applied.
func (u UpdateRequest) Merge(r model.Reservation) model.Reservation {
	if u.Date != nil {
		r.Date = *u.Date
	}
	if u.Time != nil {
		r.Time = *u.Time
	}
	if u.Duration != nil {
		r.Duration = *u.Duration
	}
	return r
}

func checkFields(req CreateRequest, loc *time.Location) (Window, error) {
	if req.UserID == 0 || req.TableID == 0 || req.Date == "" || req.Time == "" {
		return Window{}, ErrMissingFields
	}
	if req.Duration <= 0 || req.Duration > MaxDuration {
		return Window{}, ErrInvalidDuration
	}
	w, err := NewWindow(req.Date, req.Time, req.Duration, loc)
	if err != nil {
		return Window{}, err
	}
	// Conflicts are looked up per date, so a window may not spill into
	// the next day.  Ending exactly at midnight is fine.
	y, m, d := w.Start.Date()
	if w.End().After(time.Date(y, m, d+1, 0, 0, 0, 0, w.Start.Location())) {
		return Window{}, ErrPastMidnight
	}
	return w, nil
}

// ValidateCreate checks a new reservation against the user's active
// count and the active reservations already on the table that day.  It
// stops at the first failing rule.
func ValidateCreate(req CreateRequest, activeCount int, existing []model.Reservation, loc *time.Location) error {
	w, err := checkFields(req, loc)
	if err != nil {
		return err
	}
	if activeCount >= MaxActiveReservations {
		return ErrActiveLimit
	}
	if conflicts(w, existing, 0, loc) {
		return ErrTimeConflict
	}
	return nil
}

// ValidateUpdate checks that current may be changed into merged at now.
// existing holds the reservations on merged's table and date; current's
// own row is skipped.
func ValidateUpdate(current, merged model.Reservation, now time.Time, existing []model.Reservation, loc *time.Location) error {
	if current.Status == model.ReservationCancelled {
		return ErrModifyCancelled
	}
	start, err := StartOf(current.Date, current.Time, loc)
	if err != nil {
		return err
	}
	if !now.Before(start) {
		return ErrModifyPast
	}
	w, err := checkFields(CreateRequest{
		UserID:   merged.UserID,
		TableID:  merged.TableID,
		Date:     merged.Date,
		Time:     merged.Time,
		Duration: merged.Duration,
	}, loc)
	if err != nil {
		return err
	}
	if conflicts(w, existing, current.ID, loc) {
		return ErrTimeConflict
	}
	return nil
}

// ValidateCancel checks that r may be cancelled at now.
func ValidateCancel(r model.Reservation, now time.Time, loc *time.Location) error {
	if r.Status == model.ReservationCancelled {
		return ErrAlreadyCancelled
	}
	start, err := StartOf(r.Date, r.Time, loc)
	if err != nil {
		return err
	}
	if !now.Before(start) {
		return ErrCancelPast
	}
	if !now.Before(start.Add(-CancelCutoff)) {
		return ErrCancelCutoff
	}
	return nil
}
