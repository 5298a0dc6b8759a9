package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "wallet_transactions_idempotency_key_key",
		TableName:      "wallet_transactions",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeAlreadySettled, fmt.Errorf("insert: %w", pgErr), "refund already processed")

	dump := Dump(err)
	require.Equal(t, CodeAlreadySettled, dump.Code)
	require.NotNil(t, dump.Postgres)
	require.Equal(t, "23505", dump.Postgres.Code)
	require.Equal(t, "wallet_transactions", dump.Postgres.Table)
	require.Len(t, dump.Chain, 3)

	fields := dump.Fields()
	require.Equal(t, "wallet_transactions_idempotency_key_key", fields["pg_constraint"])
	require.Equal(t, string(CodeAlreadySettled), fields["error_code"])
}

func TestDumpReadsLibPQErrors(t *testing.T) {
	err := fmt.Errorf("update order: %w", &pq.Error{Code: "40001", Table: "orders", Message: "could not serialize access"})

	dump := Dump(err)
	require.Empty(t, dump.Code)
	require.NotNil(t, dump.Postgres)
	require.Equal(t, "40001", dump.Postgres.Code)
	require.Equal(t, "orders", dump.Postgres.Table)
}

func TestDumpMarksRetryableCodes(t *testing.T) {
	dump := Dump(New(CodeConcurrentModification, "version mismatch"))
	require.True(t, dump.Retryable)
	require.Nil(t, dump.Postgres)
	require.Empty(t, Dump(nil).TopMessage)
}

func TestDumpCarriesStep(t *testing.T) {
	err := Wrap(CodeDependency, fmt.Errorf("timeout"), "settle refund").
		WithDetails(map[string]any{"step": "wallet_credit"})

	fields := Dump(err).Fields()
	require.Equal(t, "wallet_credit", fields["step"])
	require.NotContains(t, fields, "pg_code")
}
