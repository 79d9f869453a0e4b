package booking

import "errors"

// ValidationError reports malformed input or a violated business rule.
// Reason is safe to show to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(reason string) *ValidationError { return &ValidationError{Reason: reason} }

// Business rule violations.  Callers compare with errors.Is.
var (
	ErrMissingFields      = invalid("user, table, date, time and duration are required")
	ErrInvalidDate        = invalid("date must be YYYY-MM-DD and time must be HH:MM")
	ErrInvalidDuration    = invalid("duration must be between 1 and 1440 minutes")
	ErrPastMidnight       = invalid("reservation must end by midnight")
	ErrActiveLimit        = invalid("active reservation limit reached")
	ErrTimeConflict       = invalid("time conflict")
	ErrModifyCancelled    = invalid("cannot modify cancelled reservation")
	ErrModifyPast         = invalid("cannot modify past reservation")
	ErrAlreadyCancelled   = invalid("reservation already cancelled")
	ErrCancelPast         = invalid("cannot cancel past reservation")
	ErrCancelCutoff       = invalid("cannot cancel within 30 minutes of start")
	ErrInvalidTableType   = invalid("table type must be one of standard, vip, window, terrace")
	ErrInvalidTableStatus = invalid("table status must be one of available, reserved, unavailable")
	ErrInvalidTableNumber = invalid("table number must be positive")
	ErrInvalidSeats       = invalid("seats must be positive")
)

var (
	// ErrNotFound is returned when a reservation, table or token does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when a transition is attempted from a
	// state that does not allow it.
	ErrInvalidState = errors.New("invalid reservation state")
	// ErrConflict is returned when a table still has active reservations.
	ErrConflict = errors.New("table has active reservations")
)
