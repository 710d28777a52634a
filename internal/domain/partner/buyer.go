package partner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pasarlink/backend/internal/domain/shared"
)

// BuyerKind tags which table a BuyerRef points into.
type BuyerKind string

const (
	BuyerKindCustomer BuyerKind = "customer"
	BuyerKindSupplier BuyerKind = "supplier"
)

// BuyerRef identifies the buying party of an order. Root orders are
// bought by customers; cascaded orders are bought by the supplier one
// tier below. The referenced row is resolved explicitly at read time,
// never joined implicitly.
type BuyerRef struct {
	Kind BuyerKind `gorm:"column:buyer_kind"`
	ID   uuid.UUID `gorm:"column:buyer_id"`
}

func CustomerBuyer(id uuid.UUID) BuyerRef {
	return BuyerRef{Kind: BuyerKindCustomer, ID: id}
}

func SupplierBuyer(id uuid.UUID) BuyerRef {
	return BuyerRef{Kind: BuyerKindSupplier, ID: id}
}

func (r BuyerRef) IsZero() bool {
	return r.ID == uuid.Nil
}

func (r BuyerRef) Validate() error {
	if r.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	switch r.Kind {
	case BuyerKindCustomer, BuyerKindSupplier:
		return nil
	default:
		return shared.NewDomainError("INVALID_BUYER", fmt.Sprintf("Unknown buyer kind: %s", r.Kind))
	}
}

// Buyer is the resolved view of a BuyerRef, flattened to the fields
// order responses expose regardless of kind.
type Buyer struct {
	Kind  BuyerKind
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

// BuyerResolver resolves BuyerRefs against the customer and supplier
// tables. Resolution failures surface as NOT_FOUND.
type BuyerResolver struct {
	customers CustomerRepository
	suppliers SupplierRepository
}

func NewBuyerResolver(customers CustomerRepository, suppliers SupplierRepository) *BuyerResolver {
	return &BuyerResolver{customers: customers, suppliers: suppliers}
}

func (r *BuyerResolver) Resolve(ctx context.Context, ref BuyerRef) (*Buyer, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	switch ref.Kind {
	case BuyerKindCustomer:
		customer, err := r.customers.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Customer not found: %s", ref.ID))
		}
		return &Buyer{
			Kind:  BuyerKindCustomer,
			ID:    customer.ID,
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		}, nil
	case BuyerKindSupplier:
		supplier, err := r.suppliers.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Supplier not found: %s", ref.ID))
		}
		return &Buyer{
			Kind:  BuyerKindSupplier,
			ID:    supplier.ID,
			Name:  supplier.Name,
			Email: supplier.Email,
			Phone: supplier.Phone,
		}, nil
	}
	return nil, shared.NewDomainError("INVALID_BUYER", fmt.Sprintf("Unknown buyer kind: %s", ref.Kind))
}
