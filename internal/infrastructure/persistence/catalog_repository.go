package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pasarlink/backend/internal/domain/catalog"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) withPrices(ctx context.Context) *gorm.DB {
	return dbFrom(ctx, r.db).Preload("Prices", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

// FindByID finds a product by ID with its price history
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var p catalog.Product
	if err := r.withPrices(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDs batch-resolves products; missing ids are absent from the result
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []catalog.Product
	if err := r.withPrices(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindBySupplierAndCode finds a supplier's product by its code
func (r *GormProductRepository) FindBySupplierAndCode(ctx context.Context, supplierID uuid.UUID, code string) (*catalog.Product, error) {
	var p catalog.Product
	if err := r.withPrices(ctx).
		First(&p, "supplier_id = ? AND code = ?", supplierID, code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindBundleComponents returns the bundle composition with each component
// product and its prices loaded
func (r *GormProductRepository) FindBundleComponents(ctx context.Context, bundleID uuid.UUID) ([]catalog.ProductBundleItem, error) {
	var items []catalog.ProductBundleItem
	if err := dbFrom(ctx, r.db).
		Preload("Component.Prices", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("bundle_id = ?", bundleID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GormTaxRepository implements catalog.TaxRepository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

// FindByName finds a tax record by its display name
func (r *GormTaxRepository) FindByName(ctx context.Context, name string) (*catalog.Tax, error) {
	var t catalog.Tax
	if err := dbFrom(ctx, r.db).First(&t, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
