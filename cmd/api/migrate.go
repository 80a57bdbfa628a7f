package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the account store schema",
		Long: `Apply the embedded SQL migrations for the postgres store, or create
the unique email index for the mongo store.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			return err
		}

	case config.StoreMongo:
		m, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return err
		}
		defer m.Close(ctx)
		if err := repository.EnsureAccountIndexes(ctx, m.Collection()); err != nil {
			return err
		}

	default:
		logger.Info("nothing to migrate", zap.String("driver", cfg.Store.Driver))
		return nil
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
