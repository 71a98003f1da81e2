// Package dbtest opens migrated in-memory SQLite databases for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db"
	"github.com/angelmondragon/qkart/pkg/migrate"
	"github.com/stretchr/testify/require"
)

// Open returns a client on a private in-memory database with every migration applied.
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name),
	}

	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(context.Background(), sqlDB, migrate.Dialect(cfg)))

	return client
}
