package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/internal/cart"
	"github.com/quickshop/storefront-backend/internal/orders"
	dbpkg "github.com/quickshop/storefront-backend/pkg/db"
	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/enums"
	pkgerrors "github.com/quickshop/storefront-backend/pkg/errors"
	"github.com/quickshop/storefront-backend/pkg/logger"
	"github.com/quickshop/storefront-backend/pkg/metrics"
	"github.com/quickshop/storefront-backend/pkg/outbox"
	"github.com/quickshop/storefront-backend/pkg/outbox/payloads"
	"github.com/quickshop/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productGateway interface {
	LockByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts the active cart into an immutable order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

type service struct {
	tx         txRunner
	cartRepo   cart.CartRepository
	ordersRepo orders.Repository
	products   productGateway
	outbox     outboxPublisher
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
}

// NewService builds the checkout engine. Metrics and logger are optional.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	products productGateway,
	publisher outboxPublisher,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product gateway required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		products:   products,
		outbox:     publisher,
		metrics:    checkoutMetrics,
		logg:       logg,
	}, nil
}

// Checkout runs the whole conversion in one transaction. Stock rows are
// locked in ascending id order, every item is re-validated against the locked
// quantities, and the order, its line items, the stock decrements, the cart
// transition, and any low-stock events commit together or not at all.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		record, err := cartRepo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, "no items to check out")
			}
			return err
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "no items to check out")
		}

		ids := make([]uuid.UUID, 0, len(record.Items))
		for _, item := range record.Items {
			ids = append(ids, item.ProductID)
		}

		locked, err := s.products.LockByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]models.Product, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}

		total := 0
		items := make([]models.OrderItem, 0, len(record.Items))
		lowStock := make([]models.Product, 0)
		for _, item := range record.Items {
			product, ok := byID[item.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer exists")
			}
			if item.Quantity > product.StockQuantity {
				return insufficientStock(product, item.Quantity)
			}

			applied, err := s.products.DecrementStock(ctx, tx, product.ID, item.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				return insufficientStock(product, item.Quantity)
			}

			total += item.Quantity * product.PriceCents
			items = append(items, models.OrderItem{
				ProductID:      product.ID,
				Quantity:       item.Quantity,
				UnitPriceCents: product.PriceCents,
			})

			product.StockQuantity -= item.Quantity
			if product.IsLowStock() {
				lowStock = append(lowStock, product)
			}
		}

		order := &models.Order{UserID: userID, TotalCents: total, Items: items}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}
		orderID = order.ID

		for _, product := range lowStock {
			event := outbox.DomainEvent{
				EventType:     enums.EventStockLow,
				AggregateType: enums.AggregateProduct,
				AggregateID:   product.ID,
				Version:       1,
				Data: payloads.LowStockEvent{
					ProductID:    product.ID,
					ProductName:  product.Name,
					CurrentStock: product.StockQuantity,
					Threshold:    product.LowStockThreshold,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}

		orderEvent := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				UserID:     userID,
				TotalCents: total,
			},
		}
		if err := s.outbox.Emit(ctx, tx, orderEvent); err != nil {
			return err
		}

		if err := cartRepo.UpdateStatus(ctx, record.ID, enums.CartStatusCheckedOut); err != nil {
			return err
		}
		return cartRepo.DeleteItems(ctx, record.ID)
	})
	if err != nil {
		return nil, s.mapFailure(ctx, err)
	}

	if s.metrics != nil {
		s.metrics.OrdersCommitted.Inc()
	}
	if s.logg != nil {
		fields := map[string]any{"order_id": orderID.String(), "user_id": userID.String()}
		s.logg.Info(s.logg.WithFields(ctx, fields), "checkout committed")
	}

	return s.ordersRepo.FindByIDAndUser(ctx, orderID, userID)
}

func (s *service) mapFailure(ctx context.Context, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		if typed.Code() == pkgerrors.CodeInsufficientStock && s.metrics != nil {
			s.metrics.OversellRejections.Inc()
		}
		return typed
	}
	if dbpkg.IsSerializationFailure(err) {
		if s.metrics != nil {
			s.metrics.TxConflicts.Inc()
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "checkout aborted by lock contention")
		}
		return pkgerrors.Wrap(pkgerrors.CodeTxConflict, err, "checkout conflicted with a concurrent transaction")
	}
	return err
}

func insufficientStock(product models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for checkout").
		WithDetails(types.StockShortage{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.StockQuantity,
			Requested:   requested,
		})
}
