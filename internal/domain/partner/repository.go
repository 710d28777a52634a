package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository provides read access to customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
}

// SupplierRepository provides read access to suppliers
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Supplier, error)
}

// AddressRepository provides read access to delivery addresses
type AddressRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Address, error)
	FindDefaultForOwner(ctx context.Context, ownerType AddressOwnerType, ownerID uuid.UUID) (*Address, error)
}

// SupplierAccessRepository provides read access to the supplier-access graph
type SupplierAccessRepository interface {
	FindByViewer(ctx context.Context, viewerID uuid.UUID) ([]*SupplierAccess, error)
	FindBetween(ctx context.Context, viewerID, targetID uuid.UUID) (*SupplierAccess, error)
}
