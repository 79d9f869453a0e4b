package model

import "time"

// TableType classifies a table by where it stands or how it is served.
type TableType string

const (
	TableStandard TableType = "standard"
	TableVIP      TableType = "vip"
	TableWindow   TableType = "window"
	TableTerrace  TableType = "terrace"
)

// Valid reports whether t is one of the known table types.
func (t TableType) Valid() bool {
	switch t {
	case TableStandard, TableVIP, TableWindow, TableTerrace:
		return true
	}
	return false
}

// TableStatus is the availability flag staff set on a table.  It is
// informational only; bookability is decided by the reservations on
// the table, not by this flag.
type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableReserved    TableStatus = "reserved"
	TableUnavailable TableStatus = "unavailable"
)

// Valid reports whether s is one of the known table statuses.
func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableReserved, TableUnavailable:
		return true
	}
	return false
}

// Table represents a physical table in the restaurant.  It corresponds
// to a row in the `restaurant_tables` table.
//
// Fields:
//
//	ID        – primary key identifier.
//	Number    – unique positive number printed on the table.
//	Seats     – seating capacity.
//	Type      – category of the table (standard, vip, window, terrace).
//	Status    – availability flag (available, reserved, unavailable).
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Table struct {
	ID        uint64      `json:"id"`
	Number    uint32      `json:"number"`
	Seats     uint32      `json:"seats"`
	Type      TableType   `json:"type"`
	Status    TableStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableFilter narrows table listings.  Zero values are ignored.
type TableFilter struct {
	Type   TableType
	Seats  uint32
	Status TableStatus
}
