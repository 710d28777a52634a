package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pasarlink/backend/internal/domain/shared"
)

// PaymentStatus represents the status of a single payment record
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the status is a known PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment is one payment record attached to an order. An order may
// accumulate several records (partial payments, retried gateway
// attempts); its status is derived from the sum of the paid ones.
type Payment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID       `gorm:"index"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2)"`
	Method    string
	Status    PaymentStatus
	Reference string
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment creates a new pending payment record for an order
func NewPayment(orderID uuid.UUID, amount decimal.Decimal, method, reference string) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Order ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Payment amount must be positive")
	}

	now := time.Now()
	return &Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    PaymentStatusPending,
		Reference: reference,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkPaid marks the payment as settled
func (p *Payment) MarkPaid(at time.Time) error {
	if p.Status == PaymentStatusRefunded {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark a refunded payment as paid")
	}
	p.Status = PaymentStatusPaid
	p.PaidAt = &at
	p.UpdatedAt = time.Now()
	return nil
}

// MarkFailed marks the payment as failed
func (p *Payment) MarkFailed() {
	p.Status = PaymentStatusFailed
	p.UpdatedAt = time.Now()
}

// PaidSum returns the sum of amounts across payments marked paid
func PaidSum(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentStatusPaid {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// ReconcilePayments derives the order's payment-driven status from its
// payment records: fully covered forces paid, partially covered forces
// awaiting_payment, uncovered forces pending. The projection bypasses
// the transition table but never regresses a terminal status, and is
// idempotent. Returns true when the status changed.
func (o *Order) ReconcilePayments(payments []Payment) bool {
	if o.Status.IsTerminal() {
		return false
	}

	var derived Status
	paid := PaidSum(payments)
	switch {
	case paid.GreaterThanOrEqual(o.Total) && o.Total.IsPositive():
		derived = StatusPaid
	case paid.IsPositive():
		derived = StatusAwaitingPayment
	default:
		derived = StatusPending
	}

	// Orders that advanced past paid (scheduled, in_progress, completed)
	// are already covered; reconciliation must not pull them back.
	switch o.Status {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return false
	}

	if o.Status == derived {
		return false
	}

	from := o.Status
	o.Status = derived
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))

	return true
}
