package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the fields of a registration.
type NewUser struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Password          string
	Role              string
	VerificationToken string
}

const userColumns = "id,first_name,last_name,email,phone,password_hash,role,is_active,is_verified,verification_token,reset_token,created_at,updated_at"

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u            model.User
		verification sql.NullString
		reset        sql.NullString
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.IsVerified, &verification, &reset, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if verification.Valid {
		u.VerificationToken = &verification.String
	}
	if reset.Valid {
		u.ResetToken = &reset.String
	}
	return &u, nil
}

// Create hashes the password, inserts the user unverified and returns its ID.
func (r *UserRepo) Create(ctx context.Context, nu NewUser, cost int) (uint64, error) {
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name,last_name,email,phone,password_hash,role,verification_token) VALUES (?,?,?,?,?,?,?)",
		strings.TrimSpace(nu.FirstName), strings.TrimSpace(nu.LastName), normalizeEmail(nu.Email),
		strings.TrimSpace(nu.Phone), hash, nu.Role, nu.VerificationToken)
	if err != nil {
		return 0, userConflict(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Verify marks the account holding token as verified and clears the
// token.  It returns sql.ErrNoRows for an unknown token.
func (r *UserRepo) Verify(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_verified=TRUE, verification_token=NULL WHERE verification_token=?", token)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetResetToken stores a password reset token for the user.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, token string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET reset_token=? WHERE id=?", token, id)
	return err
}

// ResetPassword replaces the password of the account holding token and
// clears the token.
func (r *UserRepo) ResetPassword(ctx context.Context, token, password string, cost int) (uint64, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token=? LIMIT 1", token))
	if err != nil {
		return 0, err
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token=NULL WHERE id=? AND reset_token=?", hash, u.ID, token)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// ProfileUpdate carries optional profile changes.  Password is plain
// text and hashed before storage.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Password  *string
}

// UpdateProfile applies the non-nil fields of p.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate, cost int) error {
	var (
		sets []string
		args []any
	)
	if p.FirstName != nil {
		sets, args = append(sets, "first_name=?"), append(args, strings.TrimSpace(*p.FirstName))
	}
	if p.LastName != nil {
		sets, args = append(sets, "last_name=?"), append(args, strings.TrimSpace(*p.LastName))
	}
	if p.Phone != nil {
		sets, args = append(sets, "phone=?"), append(args, strings.TrimSpace(*p.Phone))
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password, cost)
		if err != nil {
			return err
		}
		sets, args = append(sets, "password_hash=?"), append(args, hash)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return userConflict(err)
}

// Delete removes the user.  Reservations and refresh tokens go with it
// through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// oneRow turns a zero-row result into sql.ErrNoRows.
func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetRole changes the user's role and marks the account verified, which
// is how staff accounts are provisioned.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET role=?, is_verified=1, verification_token=NULL WHERE id=?", role, id)
	return err
}
