package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/migrate"
)

func TestApplySQLiteSchemaIsIdempotent(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_sqlite_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, migrate.ApplySQLiteSchema(ctx, conn))
	require.NoError(t, migrate.ApplySQLiteSchema(ctx, conn))

	for _, table := range []string{"orders", "customers", "partners", "wallet_transactions", "order_charge_settings", "outbox_events", "outbox_dlq", "order_status_events"} {
		require.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}
}
