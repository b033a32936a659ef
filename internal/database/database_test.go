package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Driver: DriverSQLite,
		SQLite: config.SQLiteConfig{
			Path:        filepath.Join(t.TempDir(), "nested", "test.db"),
			BusyTimeout: time.Second,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsAreOrdered(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		migrations, err := Migrations(driver)
		require.NoError(t, err)
		require.Len(t, migrations, 2, driver)
		assert.Equal(t, uint64(1), migrations[0].Version)
		assert.Equal(t, uint64(2), migrations[1].Version)

		sql, err := migrations[0].SQL()
		require.NoError(t, err)
		assert.Contains(t, sql, "sensor_readings")
	}

	_, err := Migrations("mysql")
	assert.Error(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Ping(ctx))
	assert.Equal(t, DriverSQLite, db.Driver())

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	version, err := CurrentVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)

	applied, err = Migrate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, applied)

	var tables []string
	err = db.GetDB().SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{"file_assets", "schema_migrations", "sensor_readings", "sensors"}, tables)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
