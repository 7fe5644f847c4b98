package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/enums"
)

// CartRepository defines the persistence surface required by the cart service
// and the checkout engine.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, record *models.Cart) (*models.Cart, error)
	FindItemForUser(ctx context.Context, itemID, userID uuid.UUID) (*models.CartItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByCartAndProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
}
