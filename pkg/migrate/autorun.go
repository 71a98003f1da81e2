package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db"
	"github.com/angelmondragon/qkart/pkg/logger"
)

// autoRunEnabled reports whether the API should migrate on boot. SQLite
// databases are always migrated since they are local and disposable.
func autoRunEnabled(cfg *config.Config) bool {
	if cfg.DB.IsSQLite() {
		return true
	}
	return cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev applies pending migrations when autoRunEnabled allows it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !autoRunEnabled(cfg) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("migrate: unwrap sql.DB: %w", err)
	}

	dialect := Dialect(cfg.DB)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"dialect": dialect,
	})
	logg.Info(ctx, "migrate.autorun.start")

	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("migrate: autorun up: %w", err)
	}

	logg.Info(ctx, "migrate.autorun.done")
	return nil
}
