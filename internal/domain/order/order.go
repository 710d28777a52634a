package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
	"github.com/pasarlink/backend/internal/domain/shared/valueobject"
)

// MaxCascadeDepth bounds how far a chain of dependent orders may extend
// below its root order.
const MaxCascadeDepth = 5

// OrderItemTax is one applied tax line on an order item. Rate and amount
// are frozen at creation time so later tax changes never rewrite history.
type OrderItemTax struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	TaxID     uuid.UUID
	TaxName   string
	Rate      decimal.Decimal `gorm:"type:decimal(5,2)"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2)"`
	CreatedAt time.Time
}

// OrderItem is one priced, taxed product line within an order.
// Unit price is snapshotted at creation; subsequent catalog price
// changes never alter a persisted item.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductCode string
	Quantity    int64
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2)"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2)"`
	Taxes       []OrderItemTax  `gorm:"foreignKey:ItemID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderItem creates a new order item with amount = quantity * unit price
func NewOrderItem(orderID, productID uuid.UUID, productName, productCode string, quantity int64, unitPrice valueobject.Money) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		ProductCode: productCode,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Amount:      unitPrice.MultiplyByInt(quantity).Amount(),
		Taxes:       make([]OrderItemTax, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyTax appends a tax line computed as amount * rate / 100
func (i *OrderItem) ApplyTax(taxID uuid.UUID, taxName string, rate decimal.Decimal) (*OrderItemTax, error) {
	if taxID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax ID cannot be empty")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax rate cannot be negative")
	}

	taxAmount := valueobject.NewMoneyIDR(i.Amount).CalculatePercentage(rate)
	tax := OrderItemTax{
		ID:        uuid.New(),
		ItemID:    i.ID,
		TaxID:     taxID,
		TaxName:   taxName,
		Rate:      rate,
		Amount:    taxAmount.Amount(),
		CreatedAt: time.Now(),
	}
	i.Taxes = append(i.Taxes, tax)
	i.UpdatedAt = time.Now()

	return &tax, nil
}

// TaxAmount returns the sum of all tax lines on this item
func (i *OrderItem) TaxAmount() decimal.Decimal {
	total := decimal.Zero
	for _, tax := range i.Taxes {
		total = total.Add(tax.Amount)
	}
	return total
}

// GetAmountMoney returns the item amount as a Money value object
func (i *OrderItem) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(i.Amount)
}

// Order is the purchase aggregate root. A root order is bought by a
// customer; a dependent order is generated by cascade propagation and
// bought by the supplier one tier below it.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber       string           `gorm:"uniqueIndex"`
	Buyer             partner.BuyerRef `gorm:"embedded"`
	SupplierID        uuid.UUID        `gorm:"index"`
	Status            Status
	Items             []OrderItem     `gorm:"foreignKey:OrderID"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(14,2)"`
	TaxTotal          decimal.Decimal `gorm:"type:decimal(14,2)"`
	ShippingCost      decimal.Decimal `gorm:"type:decimal(14,2)"`
	Total             decimal.Decimal `gorm:"type:decimal(14,2)"`
	ParentOrderID     *uuid.UUID      `gorm:"index"`
	Depth             int
	InvoiceURL        string
	InvoiceExpiresAt  *time.Time
	Notes             string
	DeliveryAddressID *uuid.UUID
	CancelledAt       *time.Time
	CompletedAt       *time.Time
}

// NewOrder creates a new pending order with no items
func NewOrder(orderNumber string, buyer partner.BuyerRef, supplierID uuid.UUID) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if err := buyer.Validate(); err != nil {
		return nil, err
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Buyer:             buyer,
		SupplierID:        supplierID,
		Status:            StatusPending,
		Items:             make([]OrderItem, 0),
		Subtotal:          decimal.Zero,
		TaxTotal:          decimal.Zero,
		ShippingCost:      decimal.Zero,
		Total:             decimal.Zero,
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new item to the order. Only allowed while pending.
func (o *Order) AddItem(productID uuid.UUID, productName, productCode string, quantity int64, unitPrice valueobject.Money, taxes []OrderItemTax) (*OrderItem, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to an order that left pending status")
	}

	item, err := NewOrderItem(o.ID, productID, productName, productCode, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	for _, tax := range taxes {
		if _, err := item.ApplyTax(tax.TaxID, tax.TaxName, tax.Rate); err != nil {
			return nil, err
		}
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return item, nil
}

// AddItemWithTax adds an item and applies a single tax rate to it
func (o *Order) AddItemWithTax(productID uuid.UUID, productName, productCode string, quantity int64, unitPrice valueobject.Money, taxID uuid.UUID, taxName string, rate decimal.Decimal) (*OrderItem, error) {
	return o.AddItem(productID, productName, productCode, quantity, unitPrice, []OrderItemTax{
		{TaxID: taxID, TaxName: taxName, Rate: rate},
	})
}

// SetShippingCost sets the shipping cost. Only allowed while pending.
func (o *Order) SetShippingCost(cost valueobject.Money) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change shipping cost after order left pending status")
	}
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_SHIPPING_COST", "Shipping cost cannot be negative")
	}

	o.ShippingCost = cost.Amount()
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return nil
}

// SetNotes sets the free-text notes
func (o *Order) SetNotes(notes string) {
	o.Notes = notes
	o.UpdatedAt = time.Now()
}

// SetDeliveryAddress sets the delivery address reference
func (o *Order) SetDeliveryAddress(addressID uuid.UUID) error {
	if addressID == uuid.Nil {
		return shared.NewDomainError("INVALID_ADDRESS", "Address ID cannot be empty")
	}
	o.DeliveryAddressID = &addressID
	o.UpdatedAt = time.Now()
	return nil
}

// LinkParent marks this order as a dependent order generated from parent.
// Depth counts tiers below the root order and is bounded by MaxCascadeDepth.
func (o *Order) LinkParent(parentID uuid.UUID, depth int) error {
	if parentID == uuid.Nil {
		return shared.NewDomainError("INVALID_PARENT", "Parent order ID cannot be empty")
	}
	if parentID == o.ID {
		return shared.NewDomainError("INVALID_PARENT", "Order cannot be its own parent")
	}
	if depth <= 0 || depth > MaxCascadeDepth {
		return shared.NewDomainError("INVALID_PARENT", fmt.Sprintf("Cascade depth must be between 1 and %d", MaxCascadeDepth))
	}

	o.ParentOrderID = &parentID
	o.Depth = depth
	o.UpdatedAt = time.Now()

	return nil
}

// IsRoot reports whether this order was placed directly by a buyer
// rather than generated by cascade propagation
func (o *Order) IsRoot() bool {
	return o.ParentOrderID == nil
}

// AttachInvoice stores the payment-invoice reference returned by the
// payment gateway
func (o *Order) AttachInvoice(url string, expiresAt time.Time) error {
	if url == "" {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice URL cannot be empty")
	}

	o.InvoiceURL = url
	o.InvoiceExpiresAt = &expiresAt
	o.UpdatedAt = time.Now()

	return nil
}

// UpdateStatus transitions the order to the target status, enforcing the
// transition table. The order is left unchanged on failure.
func (o *Order) UpdateStatus(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Unknown status: %s", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}

	from := o.Status
	now := time.Now()
	o.Status = target
	switch target {
	case StatusCancelled:
		o.CancelledAt = &now
	case StatusCompleted:
		o.CompletedAt = &now
	}
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))

	return nil
}

// CanDelete reports whether the order may still be removed outright.
// Only orders that never left pending qualify; anything later stays on
// record and can only be cancelled.
func (o *Order) CanDelete() bool {
	return o.Status == StatusPending
}

// Cancel cancels the order if its current status allows it
func (o *Order) Cancel() error {
	if !o.Status.CanCancel() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	return o.UpdateStatus(StatusCancelled)
}

// recalculateTotals recomputes subtotal, tax total and total from items
func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Amount)
		taxTotal = taxTotal.Add(item.TaxAmount())
	}
	o.Subtotal = subtotal
	o.TaxTotal = taxTotal
	o.Total = subtotal.Add(taxTotal).Add(o.ShippingCost)
}

// GetTotalMoney returns the order total as a Money value object
func (o *Order) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(o.Total)
}

// GetSubtotalMoney returns the subtotal as a Money value object
func (o *Order) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(o.Subtotal)
}

// ItemCount returns the number of items in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the sum of all item quantities
func (o *Order) TotalQuantity() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
