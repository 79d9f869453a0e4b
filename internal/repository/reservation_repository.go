package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationRepo provides access to reservations.  Dates and times are
// read back formatted (YYYY-MM-DD, HH:MM) so they compare as strings and
// parse in the restaurant's zone.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationSelect = `
	SELECT r.id, r.user_id, r.table_id, t.number,
	       DATE_FORMAT(r.date, '%Y-%m-%d'), TIME_FORMAT(r.time, '%H:%i'),
	       r.duration, r.status, r.confirmation_token,
	       COALESCE(r.reminder_task_id, ''), COALESCE(r.auto_cancel_task_id, ''),
	       r.created_at, r.updated_at
	FROM reservations r
	JOIN restaurant_tables t ON t.id = r.table_id`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var m model.Reservation
	err := row.Scan(&m.ID, &m.UserID, &m.TableID, &m.TableNumber, &m.Date, &m.Time,
		&m.Duration, &m.Status, &m.ConfirmationToken, &m.ReminderTaskID, &m.AutoCancelTaskID,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ReservationRepo) query(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		m, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Create inserts m and fills in its ID and timestamps.
func (r *ReservationRepo) Create(ctx context.Context, m *model.Reservation) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reservations (user_id, table_id, date, time, duration, status, confirmation_token)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, m.TableID, m.Date, m.Time, m.Duration, m.Status, m.ConfirmationToken)
	if err != nil {
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
	*m = *created
	return nil
}

// GetByID returns the reservation or sql.ErrNoRows.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return scanReservation(r.DB.QueryRowContext(ctx, reservationSelect+" WHERE r.id = ?", id))
}

// GetByToken returns the reservation holding the confirmation token.
func (r *ReservationRepo) GetByToken(ctx context.Context, token string) (*model.Reservation, error) {
	return scanReservation(r.DB.QueryRowContext(ctx, reservationSelect+" WHERE r.confirmation_token = ?", token))
}

// List returns reservations matching f, newest first.
func (r *ReservationRepo) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != 0 {
		where, args = append(where, "r.user_id = ?"), append(args, f.UserID)
	}
	if f.TableID != 0 {
		where, args = append(where, "r.table_id = ?"), append(args, f.TableID)
	}
	if f.Date != "" {
		where, args = append(where, "r.date = ?"), append(args, f.Date)
	}
	if f.Status != "" {
		where, args = append(where, "r.status = ?"), append(args, f.Status)
	}
	q := reservationSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.date DESC, r.time DESC, r.id DESC"
	return r.query(ctx, q, args...)
}

// ListActiveByTableDate returns the pending and confirmed reservations
// on a table for one date.
func (r *ReservationRepo) ListActiveByTableDate(ctx context.Context, tableID uint64, date string) ([]model.Reservation, error) {
	return r.query(ctx,
		reservationSelect+" WHERE r.table_id = ? AND r.date = ? AND r.status IN ('pending', 'confirmed') ORDER BY r.time",
		tableID, date)
}

// CountActiveByUser counts the user's pending and confirmed reservations.
func (r *ReservationRepo) CountActiveByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE user_id = ? AND status IN ('pending', 'confirmed')",
		userID).Scan(&n)
	return n, err
}

// UpdateSchedule moves an active reservation to a new date, time and
// duration.  It reports false when the row is gone or no longer pending
// or confirmed, so a cancel that lands first is never overwritten.
func (r *ReservationRepo) UpdateSchedule(ctx context.Context, id uint64, date, clock string, duration int) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET date = ?, time = ?, duration = ? WHERE id = ? AND status IN (?, ?)",
		date, clock, duration, id, model.ReservationPending, model.ReservationConfirmed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetTaskHandles records the scheduler handles of the reservation's tasks.
func (r *ReservationRepo) SetTaskHandles(ctx context.Context, id uint64, reminder, autoCancel string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET reminder_task_id = NULLIF(?, ''), auto_cancel_task_id = NULLIF(?, '') WHERE id = ?",
		reminder, autoCancel, id)
	return err
}

// TransitionStatus sets the status to `to` only if the current status is
// one of from.  The guard is part of the UPDATE, so of two racing
// transitions exactly one changes the row.
func (r *ReservationRepo) TransitionStatus(ctx context.Context, id uint64, from []model.ReservationStatus, to model.ReservationStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{to, id}
	for _, s := range from {
		args = append(args, s)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET status = ? WHERE id = ? AND status IN ("+placeholders+")", args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
