package model

import "time"

// Layouts used for the calendar date and the time of day of a reservation.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ActiveStatuses lists the statuses that hold a table and count towards
// a user's reservation limit.
var ActiveStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed}

// Active reports whether the status still occupies the table.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	return s.Active() || s == ReservationCancelled
}

// Reservation records a user's booking of a table for a time window.
// Date and Time are wall-clock values in the restaurant's time zone and
// are kept as formatted strings (DateLayout, TimeLayout) exactly as the
// database returns them.
//
// Fields:
//
//	ID                – primary key identifier.
//	UserID            – user who owns the reservation.
//	TableID           – reserved table.
//	TableNumber       – number of the reserved table (joined, read-only).
//	Date              – calendar date, YYYY-MM-DD.
//	Time              – start time of day, HH:MM.
//	Duration          – length in minutes.
//	Status            – pending, confirmed or cancelled.
//	ConfirmationToken – opaque token exchanged for confirmation.
//	ReminderTaskID    – handle of the scheduled reminder, if any.
//	AutoCancelTaskID  – handle of the scheduled auto-cancel, if any.
//	CreatedAt         – creation timestamp.
//	UpdatedAt         – last update timestamp.
type Reservation struct {
	ID                uint64            `json:"id"`
	UserID            uint64            `json:"user_id"`
	TableID           uint64            `json:"table_id"`
	TableNumber       uint32            `json:"table_number"`
	Date              string            `json:"date"`
	Time              string            `json:"time"`
	Duration          int               `json:"duration"`
	Status            ReservationStatus `json:"status"`
	ConfirmationToken string            `json:"-"`
	ReminderTaskID    string            `json:"-"`
	AutoCancelTaskID  string            `json:"-"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ReservationFilter narrows reservation listings.  A zero UserID lists
// reservations of every user.
type ReservationFilter struct {
	UserID  uint64
	TableID uint64
	Date    string
	Status  ReservationStatus
}
