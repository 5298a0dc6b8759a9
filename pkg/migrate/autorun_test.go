package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/db"
)

func sqliteClient(t *testing.T, name string) *db.Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	client := db.NewFromConn(conn)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func hasTable(t *testing.T, client *db.Client, table string) bool {
	t.Helper()
	return client.DB().Migrator().HasTable(table)
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	client := sqliteClient(t, "autorun_skip")
	cfg := &config.Config{
		App:          config.AppConfig{Env: "prod"},
		DB:           config.DBConfig{Driver: config.DriverSQLite},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}

	require.NoError(t, MaybeRunDev(context.Background(), cfg, nil, client))
	assert.False(t, hasTable(t, client, "orders"))
}

func TestMaybeRunDevAppliesSQLiteSchema(t *testing.T) {
	client := sqliteClient(t, "autorun_dev")
	cfg := &config.Config{
		App:          config.AppConfig{Env: "dev"},
		DB:           config.DBConfig{Driver: config.DriverSQLite},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}

	require.NoError(t, MaybeRunDev(context.Background(), cfg, nil, client))
	for _, table := range []string{"orders", "customers", "outbox_events", "outbox_dlq"} {
		assert.True(t, hasTable(t, client, table), table)
	}
}
