package model

import "time"

// Roles carried in access tokens.
const (
	RoleCustomer = "CUSTOMER"
	RoleStaff    = "STAFF"
)

// User represents an application user record as stored in the
// `users` table.  Accounts start unverified; the verification token is
// cleared once the email address is confirmed.  ResetToken is set only
// while a password reset is outstanding.
type User struct {
	ID                uint64
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	PasswordHash      string
	Role              string
	IsActive          bool
	IsVerified        bool
	VerificationToken *string
	ResetToken        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsStaff reports whether the user may perform administrative actions.
func (u User) IsStaff() bool { return u.Role == RoleStaff }
