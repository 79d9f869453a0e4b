package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides access to restaurant_tables.
type TableRepo struct{ DB *sql.DB }

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{DB: db} }

const tableColumns = "id, number, seats, type, status, created_at, updated_at"

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.Number, &t.Seats, &t.Type, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts t and fills in its ID and timestamps.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO restaurant_tables (number, seats, type, status) VALUES (?, ?, ?, ?)",
		t.Number, t.Seats, t.Type, t.Status)
	if err != nil {
		if _, dup := duplicateKey(err); dup {
			return ErrTableNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

// GetByID returns the table or sql.ErrNoRows.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	return scanTable(r.DB.QueryRowContext(ctx,
		"SELECT "+tableColumns+" FROM restaurant_tables WHERE id = ?", id))
}

// List returns tables matching f ordered by number.
func (r *TableRepo) List(ctx context.Context, f model.TableFilter) ([]model.Table, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where, args = append(where, "type = ?"), append(args, f.Type)
	}
	if f.Seats > 0 {
		where, args = append(where, "seats = ?"), append(args, f.Seats)
	}
	if f.Status != "" {
		where, args = append(where, "status = ?"), append(args, f.Status)
	}
	q := "SELECT " + tableColumns + " FROM restaurant_tables"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY number"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update writes every mutable column of t.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE restaurant_tables SET number = ?, seats = ?, type = ?, status = ? WHERE id = ?",
		t.Number, t.Seats, t.Type, t.Status, t.ID)
	if _, dup := duplicateKey(err); dup {
		return ErrTableNumberExists
	}
	return err
}

// UpdateStatus sets the availability flag.
func (r *TableRepo) UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE restaurant_tables SET status = ? WHERE id = ?", status, id)
	return err
}

// DeleteIfIdle deletes the table only when no pending or confirmed
// reservation references it.  The check and the delete are one
// statement, so a reservation inserted concurrently either blocks the
// delete or fails its foreign key.
func (r *TableRepo) DeleteIfIdle(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE t FROM restaurant_tables t
		WHERE t.id = ?
		  AND NOT EXISTS (
		      SELECT 1 FROM reservations r
		      WHERE r.table_id = t.id AND r.status IN ('pending', 'confirmed'))`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
