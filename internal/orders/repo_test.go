package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/pkg/db/models"
	"github.com/quickshop/storefront-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time, total int) *models.Order {
	t.Helper()

	order := &models.Order{ID: uuid.New(), UserID: userID, TotalCents: total, CreatedAt: createdAt}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateWithItems(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := &models.Product{Name: "Ceramic Bowl", Category: "kitchen", PriceCents: 1200, StockQuantity: 5}
	require.NoError(t, db.Create(product).Error)

	order := &models.Order{
		UserID:     uuid.New(),
		TotalCents: 2400,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 2, UnitPriceCents: 1200},
		},
	}

	created, err := repo.Create(ctx, order)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	fetched, err := repo.FindByIDAndUser(ctx, created.ID, order.UserID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, 2400, fetched.TotalCents)
	assert.Equal(t, 1200, fetched.Items[0].UnitPriceCents)
	require.NotNil(t, fetched.Items[0].Product)
	assert.Equal(t, "Ceramic Bowl", fetched.Items[0].Product.Name)
}

func TestRepositoryFindByIDAndUserScoping(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, db, owner, time.Now(), 100)

	_, err := repo.FindByIDAndUser(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	fetched, err := repo.FindByIDAndUser(ctx, order.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
}

func TestRepositoryListByUserPagination(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		seedOrder(t, db, userID, base.Add(time.Duration(i)*time.Minute), (i+1)*100)
	}
	seedOrder(t, db, uuid.New(), base, 999)

	page1, cursor, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, cursor)
	assert.Equal(t, 500, page1[0].TotalCents)
	assert.Equal(t, 400, page1[1].TotalCents)

	page2, cursor, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, 300, page2[0].TotalCents)
	assert.Equal(t, 200, page2[1].TotalCents)

	page3, cursor, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Empty(t, cursor)
	assert.Equal(t, 100, page3[0].TotalCents)

	_, _, err = repo.ListByUser(ctx, userID, pagination.Params{Cursor: "not-base64!"})
	assert.Error(t, err)
}

func TestRepositoryListItemsCreatedBetween(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := &models.Product{Name: "Linen Apron", Category: "kitchen", PriceCents: 3000, StockQuantity: 5}
	require.NoError(t, db.Create(product).Error)

	dayStart := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	inside := models.OrderItem{
		OrderID: uuid.New(), ProductID: product.ID,
		Quantity: 2, UnitPriceCents: 3000,
		CreatedAt: dayStart.Add(10 * time.Hour),
	}
	outside := models.OrderItem{
		OrderID: uuid.New(), ProductID: product.ID,
		Quantity: 1, UnitPriceCents: 3000,
		CreatedAt: dayStart.Add(25 * time.Hour),
	}
	require.NoError(t, db.Create(&inside).Error)
	require.NoError(t, db.Create(&outside).Error)

	rows, err := repo.ListItemsCreatedBetween(ctx, dayStart, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Quantity)
	require.NotNil(t, rows[0].Product)
	assert.Equal(t, "Linen Apron", rows[0].Product.Name)
}
