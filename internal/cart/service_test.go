package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	product "github.com/quickshop/storefront-backend/internal/products"
	dbpkg "github.com/quickshop/storefront-backend/pkg/db"
	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/enums"
	pkgerrors "github.com/quickshop/storefront-backend/pkg/errors"
	"github.com/quickshop/storefront-backend/pkg/migrate"
	"github.com/quickshop/storefront-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.AutoMigrateSQLite(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), product.NewRepository(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int) *models.Product {
	t.Helper()
	row := &models.Product{
		Name:              name,
		Category:          "general",
		PriceCents:        500,
		StockQuantity:     stock,
		LowStockThreshold: 1,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return row
}

func TestServiceGetOrCreateActiveCart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if first.UserID != userID || len(first.Items) != 0 {
		t.Fatalf("unexpected cart: %+v", first)
	}

	second, err := svc.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same cart, got %s and %s", first.ID, second.ID)
	}
}

func TestActiveCartUniqueIndexHoldsOnSQLite(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	dup := &models.Cart{UserID: userID}
	err = db.Create(dup).Error
	if !dbpkg.IsUniqueViolation(err, "ux_carts_user_active") {
		t.Fatalf("expected unique violation for second active cart, got %v", err)
	}

	// A checked out cart releases the slot for a fresh active one.
	err = db.Model(&models.Cart{}).Where("id = ?", first.ID).
		Update("status", enums.CartStatusCheckedOut).Error
	if err != nil {
		t.Fatalf("convert cart: %v", err)
	}
	fresh, err := svc.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		t.Fatalf("create replacement cart: %v", err)
	}
	if fresh.ID == first.ID {
		t.Fatalf("expected a new active cart after conversion")
	}
}

// missingActiveCartRepo reports the active cart as absent a fixed number of
// times before delegating, reproducing the window where two requests both
// miss the read and race to insert.
type missingActiveCartRepo struct {
	CartRepository
	misses int
}

func (r *missingActiveCartRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if r.misses > 0 {
		r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.CartRepository.FindActiveByUser(ctx, userID)
}

func TestGetOrCreateActiveCartRecoversFromLostInsertRace(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	winner := &models.Cart{UserID: uuid.New()}
	if err := db.Create(winner).Error; err != nil {
		t.Fatalf("seed winning cart: %v", err)
	}

	repo := &missingActiveCartRepo{CartRepository: NewRepository(db), misses: 1}
	svc, err := NewService(gormTxRunner{db: db}, repo, product.NewRepository(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	record, err := svc.GetOrCreateActiveCart(context.Background(), winner.UserID)
	if err != nil {
		t.Fatalf("get or create after lost race: %v", err)
	}
	if record.ID != winner.ID {
		t.Fatalf("expected the winning cart %s, got %s", winner.ID, record.ID)
	}
}

func TestServiceAddItemValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, uuid.New(), uuid.New(), 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.AddItem(ctx, uuid.New(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestServiceAddItemMergesQuantities(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	seeded := seedProduct(t, db, "Enamel Pin", 10)

	if _, err := svc.AddItem(ctx, userID, seeded.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	record, err := svc.AddItem(ctx, userID, seeded.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(record.Items) != 1 {
		t.Fatalf("expected 1 merged item, got %d", len(record.Items))
	}
	if record.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", record.Items[0].Quantity)
	}
	if record.Items[0].Product == nil || record.Items[0].Product.Name != "Enamel Pin" {
		t.Fatalf("expected product snapshot preloaded, got %+v", record.Items[0].Product)
	}
}

func TestServiceAddItemInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	seeded := seedProduct(t, db, "Travel Mug", 4)

	if _, err := svc.AddItem(ctx, userID, seeded.ID, 3); err != nil {
		t.Fatalf("first add: %v", err)
	}

	_, err := svc.AddItem(ctx, userID, seeded.ID, 2)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	shortage, ok := typed.Details().(types.StockShortage)
	if !ok {
		t.Fatalf("expected stock shortage details, got %T", typed.Details())
	}
	if shortage.Available != 4 || shortage.Requested != 5 {
		t.Fatalf("unexpected shortage details: %+v", shortage)
	}

	record, err := svc.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(record.Items) != 1 || record.Items[0].Quantity != 3 {
		t.Fatalf("expected staged quantity unchanged at 3, got %+v", record.Items)
	}
}

func TestServiceUpdateItemQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	seeded := seedProduct(t, db, "Notebook", 6)

	record, err := svc.AddItem(ctx, userID, seeded.ID, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := record.Items[0].ID

	updated, err := svc.UpdateItemQuantity(ctx, userID, itemID, 5)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if updated.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", updated.Items[0].Quantity)
	}

	_, err = svc.UpdateItemQuantity(ctx, userID, itemID, 7)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	_, err = svc.UpdateItemQuantity(ctx, userID, itemID, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceOwnershipIsolation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	seeded := seedProduct(t, db, "Poster", 9)

	record, err := svc.AddItem(ctx, owner, seeded.ID, 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := record.Items[0].ID

	_, err = svc.UpdateItemQuantity(ctx, intruder, itemID, 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = svc.RemoveItem(ctx, intruder, itemID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = svc.RemoveItem(ctx, owner, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceRemoveItem(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	seeded := seedProduct(t, db, "Sticker Pack", 5)

	record, err := svc.AddItem(ctx, userID, seeded.ID, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	cleared, err := svc.RemoveItem(ctx, userID, record.Items[0].ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(cleared.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(cleared.Items))
	}
}
