package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRequest carries what the payment gateway needs to issue an
// invoice for an order
type InvoiceRequest struct {
	ExternalID  string
	Amount      decimal.Decimal
	PayerEmail  string
	Description string
}

// Invoice is the gateway's reference to an issued invoice
type Invoice struct {
	URL       string
	ExpiresAt time.Time
}

// Invoicer issues payment invoices at the external payment gateway
type Invoicer interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// OrderNotification is the payload sent to the accounting collaborator
// when an order is created
type OrderNotification struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	SupplierID  string          `json:"supplier_id"`
	BuyerKind   string          `json:"buyer_kind"`
	BuyerID     string          `json:"buyer_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"tax_total"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AccountingNotifier delivers order notifications to the accounting
// collaborator. Delivery is best-effort; implementations must never
// block order creation on failure.
type AccountingNotifier interface {
	NotifyOrderCreated(ctx context.Context, n OrderNotification) error
}
