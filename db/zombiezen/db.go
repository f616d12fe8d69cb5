package zombiezen

import (
	"fmt"

	"github.com/cliphive/cliphive/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type Db struct {
	pool *sqlitex.Pool
}

// Verify interface implementations
var _ db.DbAuth = (*Db)(nil)
var _ db.DbRegistration = (*Db)(nil)

// New creates a new Db instance using an existing pool provided by the user.
// The lifecycle of the pool is managed externally; this type never closes it.
func New(pool *sqlitex.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

// mapConstraintErr translates sqlite unique constraint failures into the
// store level sentinel so handlers do not depend on the driver.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
		return db.ErrConstraintUnique
	}
	return err
}
