package wiki

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrStoreMissingValue is a not-null or check constraint violation
	ErrStoreMissingValue = errors.New("store: missing required value")
	// ErrStoreUniqueViolation is a unique constraint violation
	ErrStoreUniqueViolation = errors.New("store: unique constraint violated")
)

// postgres SQLSTATE codes
const (
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
	pgUniqueViolation  = "23505"
)

// classifyStoreError tags driver errors with a store sentinel so services
// can translate them without knowing the dialect.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgNotNullViolation, pgCheckViolation:
			return fmt.Errorf("%w: %w", ErrStoreMissingValue, err)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrStoreUniqueViolation, err)
		}
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not null constraint failed"),
		strings.Contains(msg, "check constraint failed"):
		return fmt.Errorf("%w: %w", ErrStoreMissingValue, err)
	case strings.Contains(msg, "unique constraint failed"):
		return fmt.Errorf("%w: %w", ErrStoreUniqueViolation, err)
	}
	return err
}

// IsRecordNotFound reports a missing row
func IsRecordNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
