package migrate_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db"
	"github.com/angelmondragon/qkart/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) (*db.Client, config.DBConfig) {
	t.Helper()
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, cfg
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.ValidateFS(migrate.FS()))
}

func TestUpCreatesSchemaAndSeed(t *testing.T) {
	client, cfg := openSQLite(t)
	sqlDB, err := client.DB().DB()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, migrate.Up(ctx, sqlDB, migrate.Dialect(cfg)))

	var products int64
	require.NoError(t, client.DB().Table("products").Count(&products).Error)
	assert.Equal(t, int64(8), products)

	for _, table := range []string{"users", "cart_entries"} {
		var n int64
		require.NoError(t, client.DB().Table(table).Count(&n).Error, table)
		assert.Zero(t, n, table)
	}

	version, err := migrate.Version(ctx, sqlDB, migrate.Dialect(cfg))
	require.NoError(t, err)
	assert.Equal(t, int64(20260105120300), version)

	// re-running is a no-op
	require.NoError(t, migrate.Up(ctx, sqlDB, migrate.Dialect(cfg)))
}

func TestMigrateToVersionRollsBackSeed(t *testing.T) {
	client, cfg := openSQLite(t)
	sqlDB, err := client.DB().DB()
	require.NoError(t, err)

	ctx := context.Background()
	dialect := migrate.Dialect(cfg)
	require.NoError(t, migrate.Up(ctx, sqlDB, dialect))
	require.NoError(t, migrate.MigrateToVersion(ctx, sqlDB, dialect, "20260105120200"))

	var products int64
	require.NoError(t, client.DB().Table("products").Count(&products).Error)
	assert.Zero(t, products)

	assert.Error(t, migrate.MigrateToVersion(ctx, sqlDB, dialect, "not-a-version"))
}

func TestCreateAndValidateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	path, err := migrate.CreateSQLMigration(dir, "Add Wishlist Table!")
	require.NoError(t, err)
	assert.Regexp(t, `\d{14}_add_wishlist_table\.sql$`, path)
	require.NoError(t, migrate.ValidateDir(dir))

	assert.Error(t, migrate.ValidateDir(t.TempDir()))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", migrate.Dialect(config.DBConfig{Driver: config.DriverSQLite}))
	assert.Equal(t, "postgres", migrate.Dialect(config.DBConfig{Driver: config.DriverPostgres}))
}

func TestMaybeRunDevSkipsPostgresOutsideDev(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Env: "prod"},
		DB:  config.DBConfig{Driver: config.DriverPostgres},
	}
	cfg.FeatureFlags.AutoMigrate = true

	// a nil client proves nothing was touched
	assert.NoError(t, migrate.MaybeRunDev(context.Background(), cfg, nil, nil))
}

func TestMaybeRunDevAlwaysMigratesSQLite(t *testing.T) {
	client, dbCfg := openSQLite(t)
	cfg := &config.Config{
		App: config.AppConfig{Env: "prod"},
		DB:  dbCfg,
	}

	require.NoError(t, migrate.MaybeRunDev(context.Background(), cfg, nil, client))

	var products int64
	require.NoError(t, client.DB().Table("products").Count(&products).Error)
	assert.Equal(t, int64(8), products)
}
