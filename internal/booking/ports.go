package booking

import (
	"context"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationStore persists reservations.  Lookups of missing rows
// return sql.ErrNoRows.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	GetByToken(ctx context.Context, token string) (*model.Reservation, error)
	List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error)
	ListActiveByTableDate(ctx context.Context, tableID uint64, date string) ([]model.Reservation, error)
	CountActiveByUser(ctx context.Context, userID uint64) (int, error)
	UpdateSchedule(ctx context.Context, id uint64, date, clock string, duration int) (bool, error)
	SetTaskHandles(ctx context.Context, id uint64, reminder, autoCancel string) error
	// TransitionStatus sets the status to `to` only when the current
	// status is one of from, and reports whether a row changed.
	TransitionStatus(ctx context.Context, id uint64, from []model.ReservationStatus, to model.ReservationStatus) (bool, error)
}

// TableStore persists tables.
type TableStore interface {
	Create(ctx context.Context, t *model.Table) error
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	List(ctx context.Context, f model.TableFilter) ([]model.Table, error)
	Update(ctx context.Context, t *model.Table) error
	UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error
	// DeleteIfIdle deletes the table unless it has active reservations
	// and reports whether a row was removed.
	DeleteIfIdle(ctx context.Context, id uint64) (bool, error)
}

// UserLookup resolves the recipient of reservation emails.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// Locker serialises check-then-write sequences on a key.  The returned
// function releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
