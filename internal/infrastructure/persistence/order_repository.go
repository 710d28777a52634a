package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM.
// Lookup methods return (nil, nil) when no row matches; callers wrap
// that into their own NOT_FOUND errors.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID with items and their taxes
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := dbFrom(ctx, r.db).
		Preload("Items.Taxes").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	if err := dbFrom(ctx, r.db).
		Preload("Items.Taxes").
		First(&o, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// FindByBuyer finds orders placed by the given buyer
func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyer partner.BuyerRef, filter shared.Filter) ([]order.Order, int64, error) {
	query := dbFrom(ctx, r.db).Model(&order.Order{}).
		Where("buyer_kind = ? AND buyer_id = ?", buyer.Kind, buyer.ID)
	return r.page(query, filter)
}

// FindBySupplier finds orders fulfilled by the given supplier
func (r *GormOrderRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	query := dbFrom(ctx, r.db).Model(&order.Order{}).
		Where("supplier_id = ?", supplierID)
	return r.page(query, filter)
}

// FindChildren finds the dependent orders generated from the given order
func (r *GormOrderRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]order.Order, error) {
	var orders []order.Order
	if err := dbFrom(ctx, r.db).
		Preload("Items.Taxes").
		Where("parent_order_id = ?", parentID).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order with its items and taxes. A lost
// order-number race (unique-index violation) is reported as a
// concurrency conflict so the creation service can retry with a fresh
// number.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	err := dbFrom(ctx, r.db).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("order number %s already taken: %w", o.OrderNumber, shared.ErrConcurrencyConflict)
	}
	return err
}

// SaveWithLock saves with optimistic locking on the version column
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	db := dbFrom(ctx, r.db)

	currentVersion := o.Version
	o.Version++
	o.UpdatedAt = time.Now()

	result := db.Model(&order.Order{}).
		Where("id = ? AND version = ?", o.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":             o.Status,
			"subtotal":           o.Subtotal,
			"tax_total":          o.TaxTotal,
			"shipping_cost":      o.ShippingCost,
			"total":              o.Total,
			"invoice_url":        o.InvoiceURL,
			"invoice_expires_at": o.InvoiceExpiresAt,
			"notes":              o.Notes,
			"cancelled_at":       o.CancelledAt,
			"completed_at":       o.CompletedAt,
			"version":            o.Version,
			"updated_at":         o.UpdatedAt,
		})
	if result.Error != nil {
		o.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		o.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes an order with its items, taxes and payment records
func (r *GormOrderRepository) Delete(ctx context.Context, o *order.Order) error {
	db := dbFrom(ctx, r.db)

	itemIDs := make([]uuid.UUID, len(o.Items))
	for i, item := range o.Items {
		itemIDs[i] = item.ID
	}
	if len(itemIDs) > 0 {
		if err := db.Where("item_id IN ?", itemIDs).Delete(&order.OrderItemTax{}).Error; err != nil {
			return err
		}
	}
	if err := db.Where("order_id = ?", o.ID).Delete(&order.OrderItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", o.ID).Delete(&order.Payment{}).Error; err != nil {
		return err
	}
	return db.Delete(&order.Order{}, "id = ?", o.ID).Error
}

// sortableOrderColumns are the only columns list endpoints may sort
// on. The sort field is caller-supplied and ends up in the ORDER BY
// clause, so anything else falls back to created_at.
var sortableOrderColumns = map[string]struct{}{
	"created_at":   {},
	"updated_at":   {},
	"order_number": {},
	"status":       {},
	"total":        {},
}

func sortColumn(field string) string {
	if _, ok := sortableOrderColumns[field]; ok {
		return field
	}
	return "created_at"
}

func (r *GormOrderRepository) page(query *gorm.DB, filter shared.Filter) ([]order.Order, int64, error) {
	filter.Normalize()

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if strings.ToLower(filter.OrderDir) == "asc" {
		direction = "ASC"
	}

	var orders []order.Order
	if err := query.
		Preload("Items.Taxes").
		Order(sortColumn(filter.OrderBy) + " " + direction).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GormPaymentRepository implements order.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByOrderID finds all payment records for an order
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]order.Payment, error) {
	var payments []order.Payment
	if err := dbFrom(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByReference finds a payment by its gateway reference
func (r *GormPaymentRepository) FindByReference(ctx context.Context, reference string) (*order.Payment, error) {
	var p order.Payment
	if err := dbFrom(ctx, r.db).
		First(&p, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Save creates or updates a payment record
func (r *GormPaymentRepository) Save(ctx context.Context, p *order.Payment) error {
	return dbFrom(ctx, r.db).Save(p).Error
}

// LockedNumberAllocator implements order.NumberAllocator with a
// write-locked read of the highest committed suffix for the prefix.
// The lock serializes concurrent creators against existing rows only;
// on a fresh prefix there is nothing to lock, two transactions can
// compute the same suffix, and the loser's insert hits the
// order_number unique index. Save reports that as a concurrency
// conflict and the creation service retries the whole transaction.
type LockedNumberAllocator struct {
	db *gorm.DB
}

// NewLockedNumberAllocator creates a new LockedNumberAllocator
func NewLockedNumberAllocator(db *gorm.DB) *LockedNumberAllocator {
	return &LockedNumberAllocator{db: db}
}

// Next returns the next free order number for the prefix
func (a *LockedNumberAllocator) Next(ctx context.Context, prefix string) (string, error) {
	db := dbFrom(ctx, a.db)
	query := db.Model(&order.Order{}).
		Where("order_number LIKE ?", prefix+"-%").
		Order("order_number DESC").
		Limit(1)

	// SQLite has no FOR UPDATE; tests there run single-writer.
	if db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var last []string
	if err := query.Pluck("order_number", &last).Error; err != nil {
		return "", err
	}

	var suffix int64 = 1
	if len(last) > 0 {
		parts := strings.Split(last[0], "-")
		parsed, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("malformed order number %q: %w", last[0], err)
		}
		suffix = parsed + 1
	}

	return order.FormatNumber(prefix, suffix), nil
}
