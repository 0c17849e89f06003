package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"example.com/gym/internal/domain"
)

// SQLSTATE codes the repository gives a domain meaning to.
const (
	codeUniqueViolation     = "23505"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
	codeNumericOutOfRange   = "22003"
	codeInvalidDatetime     = "22007"
	codeStringTooLong       = "22001"
)

// translate attaches a domain error kind to driver errors. The driver error
// stays in the chain so callers can still reach *pgconn.PgError.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return &constraintError{kind: domain.ErrAlreadyExists, pg: pgErr}
	case codeNotNullViolation, codeCheckViolation, codeForeignKeyViolation,
		codeNumericOutOfRange, codeInvalidDatetime, codeStringTooLong:
		return &constraintError{kind: domain.ErrInvalidInput, pg: pgErr}
	default:
		return err
	}
}

type constraintError struct {
	kind error
	pg   *pgconn.PgError
}

func (e *constraintError) Error() string {
	if e.pg.ConstraintName != "" {
		return fmt.Sprintf("%v (%s): %s", e.kind, e.pg.ConstraintName, e.pg.Message)
	}
	return fmt.Sprintf("%v: %s", e.kind, e.pg.Message)
}

func (e *constraintError) Unwrap() []error { return []error{e.kind, e.pg} }
