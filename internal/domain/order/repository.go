package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by ID, items and taxes included
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByBuyer finds orders placed by the given buyer
	FindByBuyer(ctx context.Context, buyer partner.BuyerRef, filter shared.Filter) ([]Order, int64, error)

	// FindBySupplier finds orders fulfilled by the given supplier
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindChildren finds the dependent orders generated from the given order
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Order, error)

	// Save creates or updates an order together with its items and taxes
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, o *Order) error

	// Delete removes an order together with its items, taxes and
	// payment records
	Delete(ctx context.Context, o *Order) error
}

// PaymentRepository defines the interface for payment record persistence
type PaymentRepository interface {
	// FindByOrderID finds all payment records for an order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]Payment, error)

	// FindByReference finds a payment by its gateway reference
	FindByReference(ctx context.Context, reference string) (*Payment, error)

	// Save creates or updates a payment record
	Save(ctx context.Context, p *Payment) error
}

// NumberAllocator hands out order numbers guaranteed unique across all
// orders sharing the same date-scoped prefix, race-free under
// concurrent callers.
type NumberAllocator interface {
	Next(ctx context.Context, prefix string) (string, error)
}
