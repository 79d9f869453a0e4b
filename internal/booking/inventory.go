package booking

import (
	"context"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableUpdate carries the fields of a partial table update.
type TableUpdate struct {
	Number *uint32
	Seats  *uint32
	Type   *model.TableType
	Status *model.TableStatus
}

// Inventory manages the restaurant's tables.
type Inventory struct {
	tables TableStore
}

func NewInventory(tables TableStore) *Inventory {
	return &Inventory{tables: tables}
}

func validateTable(t *model.Table) error {
	switch {
	case t.Number == 0:
		return ErrInvalidTableNumber
	case t.Seats == 0:
		return ErrInvalidSeats
	case !t.Type.Valid():
		return ErrInvalidTableType
	case !t.Status.Valid():
		return ErrInvalidTableStatus
	}
	return nil
}

// List returns the tables matching f.
func (inv *Inventory) List(ctx context.Context, f model.TableFilter) ([]model.Table, error) {
	return inv.tables.List(ctx, f)
}

// Get returns one table.
func (inv *Inventory) Get(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := inv.tables.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// Create stores a new table.  An empty type or status defaults to
// standard and available.
func (inv *Inventory) Create(ctx context.Context, t *model.Table) error {
	if t.Type == "" {
		t.Type = model.TableStandard
	}
	if t.Status == "" {
		t.Status = model.TableAvailable
	}
	if err := validateTable(t); err != nil {
		return err
	}
	return inv.tables.Create(ctx, t)
}

// Update applies u to the table with the given id.
func (inv *Inventory) Update(ctx context.Context, id uint64, u TableUpdate) (*model.Table, error) {
	t, err := inv.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Number != nil {
		t.Number = *u.Number
	}
	if u.Seats != nil {
		t.Seats = *u.Seats
	}
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if err := validateTable(t); err != nil {
		return nil, err
	}
	if err := inv.tables.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetStatus changes only the availability flag of a table.
func (inv *Inventory) SetStatus(ctx context.Context, id uint64, status model.TableStatus) (*model.Table, error) {
	if !status.Valid() {
		return nil, ErrInvalidTableStatus
	}
	t, err := inv.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.tables.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	t.Status = status
	return t, nil
}

// Delete removes a table that has no pending or confirmed reservations.
func (inv *Inventory) Delete(ctx context.Context, id uint64) error {
	deleted, err := inv.tables.DeleteIfIdle(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		return nil
	}
	if _, err := inv.Get(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}
