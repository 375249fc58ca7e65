package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for storage facts. Repositories return these
// (optionally wrapped) so services can translate them without knowing
// the backend.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ConflictIfDuplicate converts a Postgres unique violation into
// ErrConflict and passes every other error through.
func ConflictIfDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
