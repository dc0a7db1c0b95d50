package main

import (
	"context"
	root "lending"
	"lending/internal/config"
	"lending/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCommand constructs the 'migrate' subcommand that brings the
// PostgreSQL schema (domain tables and River queue) to the latest version.
func migrateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates database to the latest version",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			if cfg.Storage.Driver != config.StorageDriverPostgres {
				logger.Warn(ctx, "storage driver is not postgres, migrating the configured database anyway",
					zap.String("driver", cfg.Storage.Driver))
			}

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			report, err := strg.Migrate(ctx, root.Migrations)
			if err != nil {
				logger.Fatal(ctx, "could not migrate pgsql", zap.Error(err))
			}

			logger.Info(ctx, "database migrated",
				zap.Int64s("schemaVersions", report.Schema),
				zap.Ints("riverVersions", report.River))
		},
	}

	return cmd
}
