package booking

import (
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Window is the half-open interval [Start, Start+Length).
type Window struct {
	Start  time.Time
	Length time.Duration
}

// End returns the first instant after the window.
func (w Window) End() time.Time { return w.Start.Add(w.Length) }

// Overlaps reports whether a and b share at least one instant.  Windows
// with a non-positive length never overlap anything, and a window that
// ends exactly where the other starts does not overlap it.
func Overlaps(a, b Window) bool {
	if a.Length <= 0 || b.Length <= 0 {
		return false
	}
	return a.Start.Before(b.End()) && b.Start.Before(a.End())
}

// NewWindow combines a calendar date and a time of day in loc into a
// single window of the given length in minutes.  Seconds on the time of
// day are accepted and ignored.
func NewWindow(date, clock string, minutes int, loc *time.Location) (Window, error) {
	start, err := StartOf(date, clock, loc)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, Length: time.Duration(minutes) * time.Minute}, nil
}

// StartOf returns the instant a reservation on date at clock begins.
func StartOf(date, clock string, loc *time.Location) (time.Time, error) {
	if len(clock) > len(model.TimeLayout) && strings.Count(clock, ":") == 2 {
		clock = clock[:len(model.TimeLayout)]
	}
	t, err := time.ParseInLocation(model.DateLayout+" "+model.TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func windowOf(r model.Reservation, loc *time.Location) (Window, error) {
	return NewWindow(r.Date, r.Time, r.Duration, loc)
}

// conflicts reports whether w overlaps any active reservation in
// existing other than the one with id skip.
func conflicts(w Window, existing []model.Reservation, skip uint64, loc *time.Location) bool {
	for _, r := range existing {
		if r.ID == skip || !r.Status.Active() {
			continue
		}
		other, err := windowOf(r, loc)
		if err != nil {
			continue
		}
		if Overlaps(w, other) {
			return true
		}
	}
	return false
}
