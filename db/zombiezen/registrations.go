package zombiezen

import (
	"context"
	"fmt"

	"github.com/cliphive/cliphive/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func newRegistrationFromStmt(stmt *sqlite.Stmt) (*db.PendingRegistration, error) {
	expiry, err := db.TimeParse(stmt.GetText("otp_expiry"))
	if err != nil {
		return nil, fmt.Errorf("error parsing otp_expiry time: %w", err)
	}

	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}

	return &db.PendingRegistration{
		Email:     stmt.GetText("email"),
		Otp:       stmt.GetText("otp"),
		OtpExpiry: expiry,
		Created:   created,
	}, nil
}

// GetRegistration retrieves the pending registration for an email.
// Returns (nil, nil) when no record exists.
func (d *Db) GetRegistration(email string) (*db.PendingRegistration, error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var reg *db.PendingRegistration
	err = sqlitex.Execute(conn,
		`SELECT email, otp, otp_expiry, created
		FROM pending_registrations WHERE email = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				reg, err = newRegistrationFromStmt(stmt)
				return err
			},
			Args: []any{email},
		})

	if err != nil {
		return nil, err
	}

	return reg, nil
}

// UpsertRegistration inserts or replaces the pending registration for the
// email. A restart of the flow supersedes the previous OTP.
func (d *Db) UpsertRegistration(reg db.PendingRegistration) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO pending_registrations (email, otp, otp_expiry)
		VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			otp = excluded.otp,
			otp_expiry = excluded.otp_expiry,
			created = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))`,
		&sqlitex.ExecOptions{
			Args: []any{reg.Email, reg.Otp, db.TimeFormatString(reg.OtpExpiry)},
		})
	if err != nil {
		return fmt.Errorf("failed to upsert registration: %w", err)
	}

	return nil
}

func (d *Db) DeleteRegistration(email string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM pending_registrations WHERE email = ?`,
		&sqlitex.ExecOptions{
			Args: []any{email},
		})
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}

	return nil
}
