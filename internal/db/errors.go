package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Closed set of storage error kinds. Drivers translate their own error codes
// into these exactly once, at the storage boundary; callers only ever test
// with errors.Is.
var (
	// ErrForeignKey: a referenced row (e.g. the owning item) does not exist.
	ErrForeignKey = eris.New("db: referenced row not found")
	// ErrConflict: a uniqueness constraint lost a race (e.g. two writers both
	// claiming the primary slot for the same item and condition).
	ErrConflict = eris.New("db: constraint conflict")
	// ErrTransient: the store failed mid-operation in a way that may succeed
	// on retry. The ledger never retries internally; retry policy belongs to
	// the caller.
	ErrTransient = eris.New("db: transient failure")
)

// SQLSTATE classes and codes worth distinguishing.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
	classConnection         = "08"
)

// Translate converts a pgx error into one of the closed error kinds, wrapped
// with op for context. Unrecognized errors pass through with the same wrap.
func Translate(err error, op string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeForeignKeyViolation:
			return eris.Wrap(ErrForeignKey, op)
		case pgErr.Code == codeUniqueViolation:
			return eris.Wrap(ErrConflict, op)
		case pgErr.Code == codeSerializationFail, pgErr.Code == codeDeadlockDetected:
			return eris.Wrap(ErrTransient, op)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == classConnection:
			return eris.Wrap(ErrTransient, op)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return eris.Wrap(ErrTransient, op)
	}
	return eris.Wrap(err, op)
}
