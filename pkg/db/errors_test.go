package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "wallet_transactions_idempotency_key_key"}

	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pgErr), ""))
	require.True(t, IsUniqueViolation(pgErr, "wallet_transactions_idempotency_key_key"))
	require.False(t, IsUniqueViolation(pgErr, "orders_order_number_key"))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))

	sqliteErr := errors.New("UNIQUE constraint failed: wallet_transactions.idempotency_key")
	require.True(t, IsUniqueViolation(sqliteErr, ""))
	require.True(t, IsUniqueViolation(sqliteErr, "idempotency_key"))

	require.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	require.False(t, IsUniqueViolation(nil, ""))
}
