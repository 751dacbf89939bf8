package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"gorm.io/gorm"
)

const pgForeignKeyViolation = "23503"

var (
	errMissingID     = errors.New("id is required")
	errDuplicateID   = errors.New("id already exists")
	errUnknownAnimal = errors.New("animal does not exist")
)

// storeError wraps a store failure with the operation, the target id and its kind.
func storeError(op string, id string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.OperationError{Op: op, ID: id, Kind: storeErrorKind(err), Err: err}
}

func notFoundError(op string, id string) error {
	return &domain.OperationError{Op: op, ID: id, Kind: domain.ErrNotFound}
}

func referenceError(op string, id string) error {
	return &domain.OperationError{Op: op, ID: id, Kind: domain.ErrReference, Err: errUnknownAnimal}
}

// isRowID reports whether id can name a row in a uuid primary key column.
// PostgreSQL rejects anything else with 22P02 before looking at the table,
// so callers treat such ids as absent instead of sending them.
func isRowID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func storeErrorKind(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return domain.ErrTimeout
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ErrReference
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return domain.ErrReference
	}

	return domain.ErrStore
}
