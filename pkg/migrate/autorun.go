package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/pkg/config"
	"github.com/quickshop/storefront-backend/pkg/db"
	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/logger"
)

// activeCartIndex mirrors the partial unique index the postgres migrations
// create on carts. GORM struct tags cannot express a partial index, so the
// sqlite schema has to add it by hand or the one-active-cart-per-user rule
// would hold on postgres only.
const activeCartIndex = "CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_active ON carts (user_id) WHERE status = 'active'"

// AutoMigrateSQLite builds the complete sqlite schema, including the indexes
// AutoMigrate cannot derive from struct tags.
func AutoMigrateSQLite(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OutboxEvent{},
	)
	if err != nil {
		return err
	}
	return gdb.Exec(activeCartIndex).Error
}

// MaybeRunDev applies schema changes automatically when the app runs in dev
// mode with the feature flag enabled. The sqlite dev driver uses GORM
// AutoMigrate because the SQL migrations are written for postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.FeatureFlags.UseSQLite || cfg.DB.Driver == "sqlite" {
		logg.Info(ctx, "running GORM auto-migration (sqlite dev)")
		return AutoMigrateSQLite(client.DB())
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
