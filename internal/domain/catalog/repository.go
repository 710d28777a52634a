package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository provides read access to the product catalog.
// Implementations must preload price history ordered by creation time.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs batch-resolves products in a single query.
	// Missing ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindBySupplierAndCode(ctx context.Context, supplierID uuid.UUID, code string) (*Product, error)
	// FindBundleComponents returns the bundle composition of a product,
	// with each component product and its prices loaded.
	FindBundleComponents(ctx context.Context, bundleID uuid.UUID) ([]ProductBundleItem, error)
}

// TaxRepository provides read access to configured tax records
type TaxRepository interface {
	FindByName(ctx context.Context, name string) (*Tax, error)
}
