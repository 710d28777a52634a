package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
)

// ==================== Requests ====================

// CreateOrderRequest represents a request to create a root order
type CreateOrderRequest struct {
	BuyerKind         partner.BuyerKind      `json:"buyer_kind" binding:"required,oneof=customer supplier"`
	BuyerID           uuid.UUID              `json:"buyer_id" binding:"required"`
	Items             []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
	Notes             string                 `json:"notes" binding:"max=500"`
	DeliveryAddressID *uuid.UUID             `json:"delivery_address_id"`
	ShippingCost      *decimal.Decimal       `json:"shipping_cost"`
}

// CreateOrderItemInput represents one (product, quantity) pair in the request
type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1"`
}

// UpdateStatusRequest represents a request to transition an order's status
type UpdateStatusRequest struct {
	Status order.Status `json:"status" binding:"required,orderstatus"`
}

// RecordPaymentRequest represents a manually recorded payment
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"required,min=1,max=50"`
	Reference string          `json:"reference" binding:"max=100"`
}

// ListFilter represents pagination and filter options for order lists
type ListFilter struct {
	Status   *order.Status `form:"status"`
	Page     int           `form:"page" binding:"omitempty,min=1"`
	PageSize int           `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string        `form:"order_by"`
	OrderDir string        `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Responses ====================

// BuyerResponse is the resolved buyer of an order
type BuyerResponse struct {
	Kind  partner.BuyerKind `json:"kind"`
	ID    uuid.UUID         `json:"id"`
	Name  string            `json:"name,omitempty"`
	Email string            `json:"email,omitempty"`
	Phone string            `json:"phone,omitempty"`
}

// OrderItemTaxResponse is one applied tax line on an item
type OrderItemTaxResponse struct {
	TaxID   uuid.UUID       `json:"tax_id"`
	TaxName string          `json:"tax_name"`
	Rate    decimal.Decimal `json:"rate"`
	Amount  decimal.Decimal `json:"amount"`
}

// OrderItemResponse is one line item of an order
type OrderItemResponse struct {
	ID          uuid.UUID              `json:"id"`
	ProductID   uuid.UUID              `json:"product_id"`
	ProductName string                 `json:"product_name"`
	ProductCode string                 `json:"product_code"`
	Quantity    int64                  `json:"quantity"`
	UnitPrice   decimal.Decimal        `json:"unit_price"`
	Amount      decimal.Decimal        `json:"amount"`
	Taxes       []OrderItemTaxResponse `json:"taxes"`
}

// AddressResponse is a resolved delivery address snapshot
type AddressResponse struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label,omitempty"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	Province   string    `json:"province"`
	PostalCode string    `json:"postal_code"`
}

// OrderResponse is the full representation of an order
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	Buyer            BuyerResponse       `json:"buyer"`
	SupplierID       uuid.UUID           `json:"supplier_id"`
	Status           order.Status        `json:"status"`
	Items            []OrderItemResponse `json:"items"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	TaxTotal         decimal.Decimal     `json:"tax_total"`
	ShippingCost     decimal.Decimal     `json:"shipping_cost"`
	Total            decimal.Decimal     `json:"total"`
	ParentOrderID    *uuid.UUID          `json:"parent_order_id,omitempty"`
	InvoiceURL       string              `json:"invoice_url,omitempty"`
	InvoiceExpiresAt *time.Time          `json:"invoice_expires_at,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	DeliveryAddress  *AddressResponse    `json:"delivery_address,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// CreateOrderResponse is the result of an order creation. InvoicePending
// reports that the order was persisted but the payment invoice could not
// be issued yet.
type CreateOrderResponse struct {
	Order          OrderResponse `json:"order"`
	InvoicePending bool          `json:"invoice_pending"`
}

// OrderTreeResponse is an order with its dependent orders, recursively
type OrderTreeResponse struct {
	OrderResponse
	Children []OrderTreeResponse `json:"children,omitempty"`
}

// PaymentResponse is one payment record of an order
type PaymentResponse struct {
	ID        uuid.UUID           `json:"id"`
	OrderID   uuid.UUID           `json:"order_id"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    string              `json:"method"`
	Status    order.PaymentStatus `json:"status"`
	Reference string              `json:"reference,omitempty"`
	PaidAt    *time.Time          `json:"paid_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ==================== Converters ====================

// ToOrderItemResponse converts a domain order item to its response form
func ToOrderItemResponse(item order.OrderItem) OrderItemResponse {
	taxes := make([]OrderItemTaxResponse, len(item.Taxes))
	for i, tax := range item.Taxes {
		taxes[i] = OrderItemTaxResponse{
			TaxID:   tax.TaxID,
			TaxName: tax.TaxName,
			Rate:    tax.Rate,
			Amount:  tax.Amount,
		}
	}
	return OrderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		ProductCode: item.ProductCode,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Amount:      item.Amount,
		Taxes:       taxes,
	}
}

// ToOrderResponse converts a domain order to its response form.
// The buyer reference is carried as-is; use WithBuyer to attach the
// resolved identity.
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = ToOrderItemResponse(item)
	}
	return OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		Buyer:            BuyerResponse{Kind: o.Buyer.Kind, ID: o.Buyer.ID},
		SupplierID:       o.SupplierID,
		Status:           o.Status,
		Items:            items,
		Subtotal:         o.Subtotal,
		TaxTotal:         o.TaxTotal,
		ShippingCost:     o.ShippingCost,
		Total:            o.Total,
		ParentOrderID:    o.ParentOrderID,
		InvoiceURL:       o.InvoiceURL,
		InvoiceExpiresAt: o.InvoiceExpiresAt,
		Notes:            o.Notes,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// WithBuyer attaches a resolved buyer identity to the response
func (r OrderResponse) WithBuyer(buyer *partner.Buyer) OrderResponse {
	if buyer != nil {
		r.Buyer = BuyerResponse{
			Kind:  buyer.Kind,
			ID:    buyer.ID,
			Name:  buyer.Name,
			Email: buyer.Email,
			Phone: buyer.Phone,
		}
	}
	return r
}

// ToPaymentResponse converts a domain payment to its response form
func ToPaymentResponse(p *order.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
}
