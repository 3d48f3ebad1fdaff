package sqlite

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// Result-code helpers. Constraint violations are translated into the
// typed error kinds at the point of the failing statement; everything
// else propagates unmodified. Detection goes through the driver's result
// codes, never through message text.

// isForeignKeyViolation reports whether err is a referential-integrity
// failure.
func isForeignKeyViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// isBusy reports whether err is a transient lock conflict worth retrying.
func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	primary := serr.Code() & 0xff
	return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
}

// asUnknownClient translates a foreign-key violation into an
// UnknownClientError for id, passing other errors through.
func asUnknownClient(err error, id types.ClientID) error {
	if isForeignKeyViolation(err) {
		return types.NewUnknownClientError(id, err)
	}
	return err
}

// asAtLeastOneUnknownClient translates a foreign-key violation into an
// AtLeastOneUnknownClientError for the batch, passing other errors
// through.
func asAtLeastOneUnknownClient(err error, ids []types.ClientID) error {
	if isForeignKeyViolation(err) {
		return types.NewAtLeastOneUnknownClientError(ids, err)
	}
	return err
}
