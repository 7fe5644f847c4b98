package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/quickshop/storefront-backend/pkg/db"
	"github.com/quickshop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/quickshop/storefront-backend/pkg/errors"
	"github.com/quickshop/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the cart staging operations.
type Service interface {
	GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error)
}

type service struct {
	tx       txRunner
	repo     CartRepository
	products productFinder
}

// NewService builds the cart service.
func NewService(tx txRunner, repo CartRepository, products productFinder) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{tx: tx, repo: repo, products: products}, nil
}

// GetOrCreateActiveCart returns the user's active cart, creating one on the
// first request. A concurrent create losing the unique-index race falls back
// to re-reading the winner.
func (s *service) GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	record, err := s.repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{UserID: userID}
	if _, err := s.repo.Create(ctx, created); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_carts_user_active") {
			return s.repo.FindActiveByUser(ctx, userID)
		}
		return nil, err
	}
	return s.repo.FindActiveByUser(ctx, userID)
}

// AddItem upserts the product into the user's active cart, merging quantities
// when the product is already staged. The stock check here is advisory;
// checkout re-validates under row locks.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	record, err := s.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		merged := qty
		existing, err := repo.FindItemByCartAndProduct(ctx, record.ID, productID)
		switch {
		case err == nil:
			merged += existing.Quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if merged > product.StockQuantity {
			return insufficientStock(product, merged)
		}

		if existing != nil {
			return repo.UpdateItemQuantity(ctx, existing.ID, merged)
		}
		_, err = repo.CreateItem(ctx, &models.CartItem{
			CartID:    record.ID,
			ProductID: productID,
			Quantity:  merged,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindActiveByUser(ctx, userID)
}

// UpdateItemQuantity replaces the staged quantity for an item the user owns.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if qty > product.StockQuantity {
		return nil, insufficientStock(product, qty)
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, qty); err != nil {
		return nil, err
	}
	return s.repo.FindActiveByUser(ctx, userID)
}

// RemoveItem deletes an item the user owns and returns the refreshed cart.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	item, err := s.findOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.repo.FindActiveByUser(ctx, userID)
}

// findOwnedItem distinguishes a missing item (NOT_FOUND) from one staged in
// another user's cart (FORBIDDEN).
func (s *service) findOwnedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindItemForUser(ctx, itemID, userID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.FindItemByID(ctx, itemID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another user")
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func insufficientStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
		WithDetails(types.StockShortage{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.StockQuantity,
			Requested:   requested,
		})
}
