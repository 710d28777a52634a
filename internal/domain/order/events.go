package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// OrderCreatedEvent is raised when a new order (root or dependent) is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID         `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	BuyerKind     partner.BuyerKind `json:"buyer_kind"`
	BuyerID       uuid.UUID         `json:"buyer_id"`
	SupplierID    uuid.UUID         `json:"supplier_id"`
	ParentOrderID *uuid.UUID        `json:"parent_order_id,omitempty"`
	Total         decimal.Decimal   `json:"total"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		BuyerKind:       o.Buyer.Kind,
		BuyerID:         o.Buyer.ID,
		SupplierID:      o.SupplierID,
		ParentOrderID:   o.ParentOrderID,
		Total:           o.Total,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderStatusChangedEvent is raised on every status change, whether
// user-initiated or derived from payment reconciliation
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	FromStatus  Status    `json:"from_status"`
	ToStatus    Status    `json:"to_status"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		FromStatus:      from,
		ToStatus:        o.Status,
	}
}

// EventType returns the event type name
func (e *OrderStatusChangedEvent) EventType() string {
	return EventTypeOrderStatusChanged
}
