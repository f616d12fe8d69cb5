package db

import (
	"errors"
	"time"
)

// ErrConstraintUnique is returned when an insert or update violates a
// unique constraint (email or username already taken).
var ErrConstraintUnique = errors.New("unique constraint violation")

// DefaultBio is the profile text a fresh account starts with. It stays
// until the user writes their own.
const DefaultBio = "Hey there! I am using ClipHive."

// TimeFormat is the timestamp layout stored in the database: RFC3339 in UTC.
// Example: "2024-03-07T15:04:05Z"
const TimeFormat = time.RFC3339

// TimeParse parses a stored timestamp. An empty string maps to the zero
// time, which callers treat as "not set".
func TimeParse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(TimeFormat, s)
}

// TimeFormatString renders a time for storage. The zero time renders as the
// empty string.
func TimeFormatString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}

// User represents an account row.
// Timestamps use RFC3339 format in UTC timezone.
// The in-flight OTP pairs (reset, email change) live on the record because
// only one of each kind can be pending per user; a new request overwrites
// the previous one. Empty string means no code is pending.
type User struct {
	ID         string
	Username   string
	Email      string
	FullName   string
	Bio        string
	Avatar     string
	CoverImage string
	// Password is the bcrypt hash, never the plaintext
	Password string
	// RefreshToken is the currently valid refresh token, stored verbatim.
	// Exactly one session survives per user: issuing a new pair overwrites
	// it, logout clears it, and a presented token that does not match it
	// is rejected.
	RefreshToken         string
	ResetOtp             string
	ResetOtpExpiry       time.Time
	EmailChangeOtp       string
	EmailChangeOtpExpiry time.Time
	Created              time.Time
	Updated              time.Time
}

// PendingRegistration is a registration that has started but not yet
// produced a user. Keyed by email: restarting registration for the same
// address replaces the previous attempt.
type PendingRegistration struct {
	Email     string
	Otp       string
	OtpExpiry time.Time
	Created   time.Time
}

// DbAuth is the store interface for account and session operations.
// Get methods return (nil, nil) when no matching record exists; an error
// is only returned for database failures.
type DbAuth interface {
	GetUserByEmail(email string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	// GetUserByIdentity resolves a login identifier that may be either an
	// email address or a username.
	GetUserByIdentity(identity string) (*User, error)
	GetUserById(id string) (*User, error)
	// CreateUser inserts a new account. Returns ErrConstraintUnique when
	// the email or username is already taken.
	CreateUser(user User) (*User, error)
	// UpdateEmail returns ErrConstraintUnique when the address is taken.
	UpdateEmail(userId string, newEmail string) error
	UpdatePassword(userId string, newPassword string) error
	// UpdateRefreshToken stores the new token verbatim. An empty string
	// clears it, revoking the session.
	UpdateRefreshToken(userId string, token string) error
	SetResetOtp(userId string, otp string, expiry time.Time) error
	ClearResetOtp(userId string) error
	SetEmailChangeOtp(userId string, otp string, expiry time.Time) error
	ClearEmailChangeOtp(userId string) error
}

// DbRegistration is the store interface for pending registrations.
type DbRegistration interface {
	// GetRegistration returns (nil, nil) when no record exists for the email.
	GetRegistration(email string) (*PendingRegistration, error)
	// UpsertRegistration inserts or replaces the pending registration for
	// the email, superseding any previous OTP.
	UpsertRegistration(reg PendingRegistration) error
	DeleteRegistration(email string) error
}
