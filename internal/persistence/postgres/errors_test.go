package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"example.com/gym/internal/domain"
)

func TestTranslateUniqueViolation(t *testing.T) {
	src := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"members_pkey\"", ConstraintName: "members_pkey"}

	err := translate(src)

	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	require.Equal(t, domain.OutcomeFailure, domain.Classify(err))
	require.Contains(t, err.Error(), "members_pkey")

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	require.Equal(t, "23505", pgErr.Code)
}

func TestTranslateInvalidInputCodes(t *testing.T) {
	for _, code := range []string{"23502", "23514", "22003", "22007"} {
		err := translate(&pgconn.PgError{Code: code, Message: "bad value"})
		require.ErrorIs(t, err, domain.ErrInvalidInput, code)
	}
}

func TestTranslatePassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection reset")
	require.Same(t, plain, translate(plain))

	other := &pgconn.PgError{Code: "42P01", Message: "relation \"members\" does not exist"}
	require.Equal(t, error(other), translate(other))
}
