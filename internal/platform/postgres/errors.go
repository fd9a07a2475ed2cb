package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/corkboard/internal/store"
)

// SQLSTATE codes mapped to store errors.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// violations names each integrity violation for error messages.
var violations = map[string]string{
	foreignKeyViolationCode: "foreign key violation",
	checkViolationCode:      "check constraint violation",
	notNullViolationCode:    "not null violation",
}

// MapError translates driver errors into store sentinels, keeping the
// original error in the message. Unrecognized errors pass through.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	pgErr, ok := asPgError(err)
	if !ok {
		return err
	}
	if pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	if kind, known := violations[pgErr.Code]; known {
		subject := pgErr.ConstraintName
		if pgErr.Code == notNullViolationCode {
			subject = pgErr.ColumnName
		}
		return fmt.Errorf("%w: %s (%s): %v", store.ErrInvalidEntity, kind, subject, err)
	}
	return err
}

// MapForeignKeyViolation resolves a foreign key violation to the sentinel
// registered for its constraint, so a missing column or label reads as not
// found. Everything else goes through MapError.
func MapForeignKeyViolation(err error, byConstraint map[string]error) error {
	if pgErr, ok := asPgError(err); ok && pgErr.Code == foreignKeyViolationCode {
		if sentinel, found := byConstraint[pgErr.ConstraintName]; found {
			return fmt.Errorf("%w: %v", sentinel, err)
		}
	}
	return MapError(err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected returns a not-found error naming entity when an UPDATE or
// DELETE touched no row.
func CheckRowsAffected(result sql.Result, entity string) error {
	if result == nil {
		return errors.New("check rows affected: nil result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if entity == "" {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: %s not found", store.ErrNotFound, entity)
}

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
