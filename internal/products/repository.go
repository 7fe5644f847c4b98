package product

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quickshop/storefront-backend/pkg/db/models"
)

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the given products without any ordering guarantee.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// LockByIDs loads the given products under FOR UPDATE row locks. IDs are
// locked in ascending order so concurrent checkouts acquire locks in the
// same sequence and cannot deadlock each other. The locking clause is only
// applied on postgres; sqlite serializes writers at the database level.
func (r *Repository) LockByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	qb := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		qb = qb.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []models.Product
	err := qb.Where("id IN ?", sorted).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementStock applies a guarded decrement. The WHERE clause re-checks the
// available quantity so stock can never go negative even if a caller skipped
// the row lock; a zero RowsAffected means the guard rejected the write.
func (r *Repository) DecrementStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// List returns all products ordered by name. Used by the seeder and the
// catalog read path.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// CountByName reports how many products carry the given name.
func (r *Repository) CountByName(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("name = ?", name).
		Count(&count).Error
	return count, err
}
