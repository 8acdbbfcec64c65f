package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// The closed set of recoverable conditions callers are expected to match with
// errors.Is. Anything else coming out of a store is a storage fault: logged
// with operation context and surfaced opaquely. Not-found is nil, nil, never
// an error.
var (
	// ErrValidation marks input that violates a stated bound or pattern.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate marks a uniqueness-constraint violation (username, email,
	// token). Callers should present a conflict, not a generic failure.
	ErrDuplicate = errors.New("already exists")

	// ErrInvalidAccount marks a session operation against a non-positive
	// account identifier.
	ErrInvalidAccount = errors.New("invalid account id")
)

// isUniqueViolation reports whether err is the storage layer's
// uniqueness-constraint fault, which must stay distinguishable from other
// storage errors.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
