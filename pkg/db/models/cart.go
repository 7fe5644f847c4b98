package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/pkg/enums"
)

// Cart is the per-user mutable collection of pending purchase intents. At
// most one cart per user may hold status=active, enforced by the partial
// unique index ux_carts_user_active. The goose migrations create it on
// postgres and migrate.AutoMigrateSQLite recreates it for the sqlite schema.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Status    enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
