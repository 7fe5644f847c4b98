package checkout

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/internal/cart"
	"github.com/quickshop/storefront-backend/internal/orders"
	product "github.com/quickshop/storefront-backend/internal/products"
	dbpkg "github.com/quickshop/storefront-backend/pkg/db"
	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/enums"
	pkgerrors "github.com/quickshop/storefront-backend/pkg/errors"
	"github.com/quickshop/storefront-backend/pkg/migrate"
	"github.com/quickshop/storefront-backend/pkg/outbox"
	"github.com/quickshop/storefront-backend/pkg/outbox/payloads"
	"github.com/quickshop/storefront-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testEnv struct {
	db       *gorm.DB
	checkout Service
	cartSvc  cart.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.AutoMigrateSQLite(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runner := gormTxRunner{db: db}
	cartRepo := cart.NewRepository(db)
	productRepo := product.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	publisher := outbox.NewService(outbox.NewRepository(db), nil)

	checkoutSvc, err := NewService(runner, cartRepo, ordersRepo, productRepo, publisher, nil, nil)
	if err != nil {
		t.Fatalf("build checkout service: %v", err)
	}
	cartSvc, err := cart.NewService(runner, cartRepo, productRepo)
	if err != nil {
		t.Fatalf("build cart service: %v", err)
	}

	return &testEnv{db: db, checkout: checkoutSvc, cartSvc: cartSvc}
}

func (e *testEnv) seedProduct(t *testing.T, name string, priceCents, stock, threshold int) *models.Product {
	t.Helper()
	row := &models.Product{
		Name:              name,
		Category:          "general",
		PriceCents:        priceCents,
		StockQuantity:     stock,
		LowStockThreshold: threshold,
	}
	if err := e.db.Create(row).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return row
}

func (e *testEnv) reloadProduct(t *testing.T, id uuid.UUID) *models.Product {
	t.Helper()
	var row models.Product
	if err := e.db.First(&row, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &row
}

func (e *testEnv) outboxEvents(t *testing.T, eventType enums.OutboxEventType) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	if err := e.db.Where("event_type = ?", eventType).Find(&rows).Error; err != nil {
		t.Fatalf("load outbox events: %v", err)
	}
	return rows
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	mug := env.seedProduct(t, "Stone Mug", 200, 8, 1)
	tee := env.seedProduct(t, "Logo Tee", 300, 5, 1)

	if _, err := env.cartSvc.AddItem(ctx, userID, mug.ID, 2); err != nil {
		t.Fatalf("add mug: %v", err)
	}
	if _, err := env.cartSvc.AddItem(ctx, userID, tee.ID, 2); err != nil {
		t.Fatalf("add tee: %v", err)
	}

	order, err := env.checkout.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.TotalCents != 1000 {
		t.Fatalf("expected total 1000, got %d", order.TotalCents)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.Product == nil {
			t.Fatalf("expected product snapshot preloaded on item %s", item.ID)
		}
	}

	if got := env.reloadProduct(t, mug.ID).StockQuantity; got != 6 {
		t.Fatalf("expected mug stock 6, got %d", got)
	}
	if got := env.reloadProduct(t, tee.ID).StockQuantity; got != 3 {
		t.Fatalf("expected tee stock 3, got %d", got)
	}

	var converted models.Cart
	if err := env.db.First(&converted, "user_id = ? AND status = ?", userID, enums.CartStatusCheckedOut).Error; err != nil {
		t.Fatalf("load converted cart: %v", err)
	}
	var itemCount int64
	if err := env.db.Model(&models.CartItem{}).Where("cart_id = ?", converted.ID).Count(&itemCount).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if itemCount != 0 {
		t.Fatalf("expected converted cart emptied, found %d items", itemCount)
	}

	fresh, err := env.cartSvc.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		t.Fatalf("get fresh cart: %v", err)
	}
	if fresh.ID == converted.ID || len(fresh.Items) != 0 {
		t.Fatalf("expected a fresh empty active cart, got %+v", fresh)
	}

	if events := env.outboxEvents(t, enums.EventOrderCreated); len(events) != 1 {
		t.Fatalf("expected 1 order.created event, got %d", len(events))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.checkout.Checkout(ctx, userID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}

	if _, err := env.cartSvc.GetOrCreateActiveCart(ctx, userID); err != nil {
		t.Fatalf("create cart: %v", err)
	}
	_, err = env.checkout.Checkout(ctx, userID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error for empty active cart, got %v", err)
	}
}

func TestCheckoutInsufficientStockRollsBackEverything(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	plate := env.seedProduct(t, "Dinner Plate", 400, 10, 1)
	bowl := env.seedProduct(t, "Soup Bowl", 250, 5, 1)

	if _, err := env.cartSvc.AddItem(ctx, userID, plate.ID, 4); err != nil {
		t.Fatalf("add plate: %v", err)
	}
	if _, err := env.cartSvc.AddItem(ctx, userID, bowl.ID, 3); err != nil {
		t.Fatalf("add bowl: %v", err)
	}

	// Another buyer drains the bowl stock between staging and checkout.
	if err := env.db.Model(&models.Product{}).Where("id = ?", bowl.ID).
		Update("stock_quantity", 2).Error; err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err := env.checkout.Checkout(ctx, userID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	shortage, ok := typed.Details().(types.StockShortage)
	if !ok || shortage.ProductName != "Soup Bowl" || shortage.Available != 2 || shortage.Requested != 3 {
		t.Fatalf("unexpected shortage details: %+v", typed.Details())
	}

	// Nothing partial may survive: plate stock restored, no order, cart intact.
	if got := env.reloadProduct(t, plate.ID).StockQuantity; got != 10 {
		t.Fatalf("expected plate stock rolled back to 10, got %d", got)
	}
	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}
	record, err := env.cartSvc.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(record.Items) != 2 {
		t.Fatalf("expected cart items untouched, got %d", len(record.Items))
	}
}

func TestCheckoutEmitsLowStockEvent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	candle := env.seedProduct(t, "Soy Candle", 800, 5, 2)

	if _, err := env.cartSvc.AddItem(ctx, userID, candle.ID, 3); err != nil {
		t.Fatalf("add candle: %v", err)
	}
	if _, err := env.checkout.Checkout(ctx, userID); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	events := env.outboxEvents(t, enums.EventStockLow)
	if len(events) != 1 {
		t.Fatalf("expected 1 stock.low event, got %d", len(events))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(events[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var data payloads.LowStockEvent
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if data.ProductID != candle.ID || data.CurrentStock != 2 || data.Threshold != 2 {
		t.Fatalf("unexpected payload: %+v", data)
	}
	if data.ProductName != "Soy Candle" {
		t.Fatalf("unexpected product name: %q", data.ProductName)
	}
}

func TestCheckoutNoLowStockEventAboveThreshold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	lamp := env.seedProduct(t, "Brass Lamp", 5000, 10, 2)

	if _, err := env.cartSvc.AddItem(ctx, userID, lamp.ID, 3); err != nil {
		t.Fatalf("add lamp: %v", err)
	}
	if _, err := env.checkout.Checkout(ctx, userID); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if events := env.outboxEvents(t, enums.EventStockLow); len(events) != 0 {
		t.Fatalf("expected no stock.low events, got %d", len(events))
	}
}

func TestCheckoutSnapshotsPriceAtConversion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	chair := env.seedProduct(t, "Oak Chair", 9000, 4, 0)

	if _, err := env.cartSvc.AddItem(ctx, userID, chair.ID, 1); err != nil {
		t.Fatalf("add chair: %v", err)
	}
	order, err := env.checkout.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if err := env.db.Model(&models.Product{}).Where("id = ?", chair.ID).
		Update("price_cents", 12000).Error; err != nil {
		t.Fatalf("reprice product: %v", err)
	}

	var item models.OrderItem
	if err := env.db.First(&item, "order_id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order item: %v", err)
	}
	if item.UnitPriceCents != 9000 {
		t.Fatalf("expected snapshotted unit price 9000, got %d", item.UnitPriceCents)
	}
	var reloaded models.Order
	if err := env.db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.TotalCents != 9000 {
		t.Fatalf("expected total still 9000, got %d", reloaded.TotalCents)
	}
}

// checkoutUntilSettled retries a buyer's checkout across lock contention until
// it either commits or is turned away for lack of stock.
func checkoutUntilSettled(t *testing.T, env *testEnv, userID uuid.UUID) (won bool) {
	t.Helper()

	const maxAttempts = 50
	for attempt := 0; attempt < maxAttempts; attempt++ {
		_, err := env.checkout.Checkout(context.Background(), userID)
		if err == nil {
			return true
		}

		typed := pkgerrors.As(err)
		if typed == nil {
			if dbpkg.IsSerializationFailure(err) {
				time.Sleep(time.Duration(attempt+1) * time.Millisecond)
				continue
			}
			t.Errorf("buyer %s: unexpected error: %v", userID, err)
			return false
		}
		switch typed.Code() {
		case pkgerrors.CodeTxConflict:
			time.Sleep(time.Duration(attempt+1) * time.Millisecond)
		case pkgerrors.CodeInsufficientStock:
			return false
		default:
			t.Errorf("buyer %s: unexpected error code %s: %v", userID, typed.Code(), err)
			return false
		}
	}
	t.Errorf("buyer %s: checkout never settled after %d attempts", userID, maxAttempts)
	return false
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const buyers = 8
	const startingStock = 5

	kettle := env.seedProduct(t, "Copper Kettle", 700, startingStock, 0)

	users := make([]uuid.UUID, buyers)
	for i := range users {
		users[i] = uuid.New()
		if _, err := env.cartSvc.AddItem(ctx, users[i], kettle.ID, 1); err != nil {
			t.Fatalf("stage cart for buyer %d: %v", i, err)
		}
	}

	var (
		mu       sync.Mutex
		wins     int
		rejected int
	)
	var wg sync.WaitGroup
	for _, userID := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			won := checkoutUntilSettled(t, env, userID)
			mu.Lock()
			defer mu.Unlock()
			if won {
				wins++
			} else {
				rejected++
			}
		}(userID)
	}
	wg.Wait()

	if t.Failed() {
		return
	}
	if wins+rejected != buyers {
		t.Fatalf("expected %d settled buyers, got %d wins and %d rejections", buyers, wins, rejected)
	}

	var sold int
	err := env.db.Model(&models.OrderItem{}).
		Where("product_id = ?", kettle.ID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sold).Error
	if err != nil {
		t.Fatalf("sum committed quantities: %v", err)
	}

	if sold > startingStock {
		t.Fatalf("oversold: %d units committed against starting stock %d", sold, startingStock)
	}
	if sold != startingStock {
		t.Fatalf("expected all %d units sold with demand at %d, got %d", startingStock, buyers, sold)
	}
	if wins != sold {
		t.Fatalf("expected one committed unit per winning buyer, got %d wins for %d units", wins, sold)
	}

	remaining := env.reloadProduct(t, kettle.ID).StockQuantity
	if remaining < 0 {
		t.Fatalf("stock went negative: %d", remaining)
	}
	if remaining != startingStock-sold {
		t.Fatalf("stock ledger mismatch: started %d, sold %d, left %d", startingStock, sold, remaining)
	}
}
