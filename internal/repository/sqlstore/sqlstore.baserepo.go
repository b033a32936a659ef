// Package sqlstore implements the repositories on sqlx, for both PostgreSQL
// and SQLite. Queries are written with '?' placeholders and rebound per driver.
package sqlstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type BaseRepo struct {
	db database.DB
}

func (r *BaseRepo) x() *sqlx.DB {
	return r.db.GetDB()
}

func (r *BaseRepo) rebind(query string) string {
	return r.db.GetDB().Rebind(query)
}

// withTx runs fn in one transaction; any error rolls it back.
func (r *BaseRepo) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}

// where joins conditions with AND.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// storeError classifies driver errors. Constraint violations surface as
// conflict, not found or validation errors; everything else is a database error.
func storeError(msg string, err error) *errors.APIError {
	if apiErr, ok := errors.As(err); ok {
		return apiErr
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return errors.NewConflictError(msg+": already exists", err)
		case "foreign_key_violation":
			return errors.NewNotFoundError(msg+": referenced row does not exist", err)
		case "check_violation", "not_null_violation":
			return errors.NewValidationError(msg+": constraint violated", err)
		}
	}

	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return errors.NewConflictError(msg+": already exists", err)
		case sqlite3.ErrConstraintForeignKey:
			return errors.NewNotFoundError(msg+": referenced row does not exist", err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return errors.NewValidationError(msg+": constraint violated", err)
		}
	}

	return errors.NewDatabaseError(msg, err)
}

// nullTime scans aggregate timestamp columns. SQLite returns those as text
// because they carry no declared column type.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	}
	return fmt.Errorf("cannot scan %T into timestamp", value)
}

func (n *nullTime) parse(s string) error {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			n.Time, n.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
