package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/quickshop/storefront-backend/pkg/errors"
	"github.com/quickshop/storefront-backend/pkg/pagination"
)

// HistoryPage is one page of a buyer's order history.
type HistoryPage struct {
	Orders     []models.Order
	NextCursor string
}

// Service exposes buyer-facing order reads.
type Service interface {
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

type service struct {
	repo Repository
}

// NewService builds the orders read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	rows, nextCursor, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Orders: rows, NextCursor: nextCursor}, nil
}
