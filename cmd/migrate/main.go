package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/migrate"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// target is an open schema handle for the goose commands.
type target struct {
	logg    *logger.Logger
	sqlDB   *sql.DB
	dialect string
	close   func() error
}

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the QKart database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "migrations directory on disk (create, validate)")

	for _, command := range []string{"up", "down", "status"} {
		root.AddCommand(newGooseCmd(command))
	}
	root.AddCommand(newVersionCmd())

	root.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Write a new timestamped SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, args[0])
			if err != nil {
				return fmt.Errorf("create migration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check migration files for naming and section errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrate.ValidateDir(dir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations ok")
			return nil
		},
	})
	return root
}

func newGooseCmd(command string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: "Run goose " + command + " against the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTarget(cmd.Context(), command, func(ctx context.Context, t *target) error {
				return migrate.Run(ctx, t.sqlDB, t.dialect, command)
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version [YYYYMMDDHHMMSS]",
		Short: "Print the schema version, or migrate up or down to one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTarget(cmd.Context(), "version", func(ctx context.Context, t *target) error {
				if len(args) == 1 {
					return migrate.MigrateToVersion(ctx, t.sqlDB, t.dialect, args[0])
				}
				current, err := migrate.Version(ctx, t.sqlDB, t.dialect)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "current version:", current)
				return nil
			})
		},
	}
}

// withTarget loads config, opens the database and runs fn with a logger
// context tagged by command.
func withTarget(ctx context.Context, command string, fn func(context.Context, *target) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t, err := openTarget(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = t.close() }()

	ctx = t.logg.WithFields(ctx, map[string]any{"cmd": command, "dialect": t.dialect})
	if err := fn(ctx, t); err != nil {
		t.logg.Error(ctx, "migrate.failed", err)
		return err
	}
	t.logg.Info(ctx, "migrate.done")
	return nil
}

func openTarget(ctx context.Context) (*target, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return &target{
		logg:    logg,
		sqlDB:   sqlDB,
		dialect: migrate.Dialect(cfg.DB),
		close:   client.Close,
	}, nil
}
