package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/cliphive/cliphive/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const userColumns = `id, username, email, full_name, bio, avatar, cover_image, password,
	refresh_token, reset_otp, reset_otp_expiry, email_change_otp, email_change_otp_expiry,
	created, updated`

// newUserFromStmt creates a User struct from a SQLite statement
func newUserFromStmt(stmt *sqlite.Stmt) (*db.User, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}

	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}

	resetExpiry, err := db.TimeParse(stmt.GetText("reset_otp_expiry"))
	if err != nil {
		return nil, fmt.Errorf("error parsing reset_otp_expiry time: %w", err)
	}

	emailChangeExpiry, err := db.TimeParse(stmt.GetText("email_change_otp_expiry"))
	if err != nil {
		return nil, fmt.Errorf("error parsing email_change_otp_expiry time: %w", err)
	}

	return &db.User{
		ID:                   stmt.GetText("id"),
		Username:             stmt.GetText("username"),
		Email:                stmt.GetText("email"),
		FullName:             stmt.GetText("full_name"),
		Bio:                  stmt.GetText("bio"),
		Avatar:               stmt.GetText("avatar"),
		CoverImage:           stmt.GetText("cover_image"),
		Password:             stmt.GetText("password"),
		RefreshToken:         stmt.GetText("refresh_token"),
		ResetOtp:             stmt.GetText("reset_otp"),
		ResetOtpExpiry:       resetExpiry,
		EmailChangeOtp:       stmt.GetText("email_change_otp"),
		EmailChangeOtpExpiry: emailChangeExpiry,
		Created:              created,
		Updated:              updated,
	}, nil
}

func (d *Db) getUserWhere(where string, arg string) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var user *db.User // Will remain nil if no rows found
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				user, err = newUserFromStmt(stmt)
				return err
			},
			Args: []any{arg},
		})

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email address.
// Returns:
// - *db.User: User record if found, nil if no matching record exists
// - returned time fields are in UTC, RFC3339
// - error: Only returned for database errors, nil on successful query (even if no results)
func (d *Db) GetUserByEmail(email string) (*db.User, error) {
	return d.getUserWhere("email = ?", email)
}

func (d *Db) GetUserByUsername(username string) (*db.User, error) {
	return d.getUserWhere("username = ?", username)
}

// GetUserByIdentity resolves a login identifier against both the email and
// username columns. Usernames cannot contain '@' so the two namespaces
// never collide.
func (d *Db) GetUserByIdentity(identity string) (*db.User, error) {
	return d.getUserWhere("email = ?1 OR username = ?1", identity)
}

func (d *Db) GetUserById(id string) (*db.User, error) {
	return d.getUserWhere("id = ?", id)
}

// CreateUser inserts a new user with RFC3339 formatted UTC timestamps.
// Returns db.ErrConstraintUnique when the email or username is taken.
func (d *Db) CreateUser(user db.User) (*db.User, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	// The column default cannot apply because bio is bound explicitly.
	if user.Bio == "" {
		user.Bio = db.DefaultBio
	}

	var createdUser *db.User
	err = sqlitex.Execute(conn,
		`INSERT INTO users (id, username, email, full_name, bio, avatar, cover_image, password)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				createdUser, err = newUserFromStmt(stmt)
				return err
			},
			Args: []any{
				user.ID,
				user.Username,
				user.Email,
				user.FullName,
				user.Bio,
				user.Avatar,
				user.CoverImage,
				user.Password,
			},
		})

	if err != nil {
		return nil, mapConstraintErr(err)
	}

	return createdUser, nil
}

// UpdateEmail returns db.ErrConstraintUnique when the address is taken.
func (d *Db) UpdateEmail(userId string, newEmail string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET email = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{newEmail, userId},
		})
	if err != nil {
		if mapped := mapConstraintErr(err); mapped == db.ErrConstraintUnique {
			return mapped
		}
		return fmt.Errorf("failed to update email: %w", err)
	}

	return nil
}

func (d *Db) UpdatePassword(userId string, newPassword string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET password = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{newPassword, userId},
		})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateRefreshToken stores the token verbatim. An empty string clears it.
// Concurrent refreshes race on this column; the last writer wins and the
// loser's pair is invalidated on its next use.
func (d *Db) UpdateRefreshToken(userId string, token string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET refresh_token = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{token, userId},
		})
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	return nil
}

func (d *Db) SetResetOtp(userId string, otp string, expiry time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET reset_otp = ?,
			reset_otp_expiry = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{otp, db.TimeFormatString(expiry), userId},
		})
	if err != nil {
		return fmt.Errorf("failed to set reset otp: %w", err)
	}

	return nil
}

func (d *Db) ClearResetOtp(userId string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET reset_otp = '',
			reset_otp_expiry = '',
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{userId},
		})
	if err != nil {
		return fmt.Errorf("failed to clear reset otp: %w", err)
	}

	return nil
}

func (d *Db) SetEmailChangeOtp(userId string, otp string, expiry time.Time) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET email_change_otp = ?,
			email_change_otp_expiry = ?,
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{otp, db.TimeFormatString(expiry), userId},
		})
	if err != nil {
		return fmt.Errorf("failed to set email change otp: %w", err)
	}

	return nil
}

func (d *Db) ClearEmailChangeOtp(userId string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users
		SET email_change_otp = '',
			email_change_otp_expiry = '',
			updated = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{userId},
		})
	if err != nil {
		return fmt.Errorf("failed to clear email change otp: %w", err)
	}

	return nil
}
