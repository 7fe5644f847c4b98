package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	product "github.com/quickshop/storefront-backend/internal/products"
	"github.com/quickshop/storefront-backend/pkg/config"
	"github.com/quickshop/storefront-backend/pkg/db"
	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/logger"
	"github.com/quickshop/storefront-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env})
	repo := product.NewRepository(dbClient.DB())

	seeded := 0
	for _, candidate := range catalog() {
		count, err := repo.CountByName(ctx, candidate.Name)
		if err != nil {
			logg.Error(ctx, "failed to check existing product", err)
			os.Exit(1)
		}
		if count > 0 {
			continue
		}
		row := candidate
		if _, err := repo.Create(ctx, &row); err != nil {
			logg.Error(ctx, "failed to seed product", err)
			os.Exit(1)
		}
		seeded++
	}

	logg.Info(logg.WithField(ctx, "seeded", seeded), "catalog seed complete")
}

func catalog() []models.Product {
	return []models.Product{
		{
			Name:              "T-Shirt",
			Category:          "Apparel",
			PriceCents:        149000,
			StockQuantity:     25,
			LowStockThreshold: 5,
			ImageURL:          strPtr("https://images.pexels.com/photos/1129019/pexels-photo-1129019.jpeg"),
		},
		{
			Name:              "Sneakers",
			Category:          "Footwear",
			PriceCents:        299000,
			StockQuantity:     6,
			LowStockThreshold: 2,
			ImageURL:          strPtr("https://images.pexels.com/photos/1598505/pexels-photo-1598505.jpeg"),
		},
		{
			Name:              "Hoodie",
			Category:          "Apparel",
			PriceCents:        249000,
			StockQuantity:     12,
			LowStockThreshold: 4,
			ImageURL:          strPtr("https://images.pexels.com/photos/1183266/pexels-photo-1183266.jpeg"),
		},
		{
			Name:              "Backpack",
			Category:          "Accessories",
			PriceCents:        199000,
			StockQuantity:     15,
			LowStockThreshold: 5,
			ImageURL:          strPtr("https://images.pexels.com/photos/3731256/pexels-photo-3731256.jpeg"),
		},
		{
			Name:              "Cap",
			Category:          "Accessories",
			PriceCents:        99000,
			StockQuantity:     8,
			LowStockThreshold: 3,
			ImageURL:          strPtr("https://images.pexels.com/photos/1124465/pexels-photo-1124465.jpeg"),
		},
	}
}

func strPtr(s string) *string {
	return &s
}
