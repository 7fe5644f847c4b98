package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the immutable record of a completed checkout. Total always equals
// the sum of quantity * unit_price_cents over its items.
type Order struct {
	ID         uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID   `gorm:"column:user_id;type:uuid;not null;index"`
	TotalCents int         `gorm:"column:total_cents;not null;default:0"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
