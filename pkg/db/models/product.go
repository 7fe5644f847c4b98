package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is the canonical catalog listing. Stock is only ever mutated by the
// checkout engine's guarded decrement.
type Product struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name              string         `gorm:"column:name;not null;uniqueIndex:ux_products_name"`
	Category          string         `gorm:"column:category;not null"`
	Tags              pq.StringArray `gorm:"column:tags;type:text[]"`
	ImageURL          *string        `gorm:"column:image_url"`
	PriceCents        int            `gorm:"column:price_cents;not null"`
	StockQuantity     int            `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int            `gorm:"column:low_stock_threshold;not null;default:0"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether remaining stock is at or below the restock threshold.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
