package watchlist

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/vadimtrunov/CineShelf/internal/core"
)

// translate wraps a driver error into a *core.StorageError.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var se *core.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &core.StorageError{Kind: classify(err), Err: err}
}

func classify(err error) core.StorageKind {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return classifySQLite(liteErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(pqErr.Code)
	}
	return core.StorageOther
}

func classifySQLite(code sqlite3.ErrNo) core.StorageKind {
	switch code {
	case sqlite3.ErrConstraint:
		return core.StorageConstraint
	case sqlite3.ErrMismatch, sqlite3.ErrRange, sqlite3.ErrTooBig:
		return core.StorageValidation
	case sqlite3.ErrFull, sqlite3.ErrIoErr, sqlite3.ErrReadonly, sqlite3.ErrCantOpen,
		sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCorrupt:
		return core.StorageSave
	default:
		return core.StorageOther
	}
}

func classifyPostgres(code pq.ErrorCode) core.StorageKind {
	switch code.Class() {
	case "23": // integrity constraint violation
		return core.StorageConstraint
	case "22": // data exception
		return core.StorageValidation
	case "08", "25", "40", "53", "57", "58":
		return core.StorageSave
	default:
		return core.StorageOther
	}
}
