package migrate

import (
	"context"
	"fmt"

	"github.com/primefit/storefront/pkg/config"
	"github.com/primefit/storefront/pkg/db"
	"github.com/primefit/storefront/pkg/db/models"
	"github.com/primefit/storefront/pkg/logger"
)

// Models lists the tables owned by the service, used for SQLite schema sync.
func Models() []any {
	return []any{&models.Category{}, &models.Product{}, &models.OrderRequest{}}
}

// MaybeRun brings the schema up to date on boot. SQLite databases are always
// synced with AutoMigrate; Postgres runs goose only in dev with the flag set.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.FeatureFlags.UseSQLite {
		logg.Info(logg.WithField(ctx, "driver", "sqlite"), "syncing schema with AutoMigrate")
		if err := client.DB().WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate sqlite: %w", err)
		}
		return nil
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
