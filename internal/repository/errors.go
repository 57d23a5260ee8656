// Package repository implements MySQL persistence for events, reservations
// and users.  The sentinel values below let higher layers tell storage
// outcomes apart without looking at driver errors.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate key")

// ErrConflict signals a transient transaction conflict (deadlock or lock wait
// timeout).  Re-running the whole transaction is safe.
var ErrConflict = errors.New("transaction conflict")

const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlCheckConstraint = 3819
)

// ErrConstraint is returned when a CHECK constraint rejects a write.
var ErrConstraint = errors.New("constraint violated")

// translate maps driver errors onto the repository sentinels.  Errors that
// do not correspond to a sentinel are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return errors.Join(ErrDuplicate, err)
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return errors.Join(ErrConflict, err)
		case mysqlCheckConstraint:
			return errors.Join(ErrConstraint, err)
		}
	}
	return err
}
