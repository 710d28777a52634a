package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// GatewayNotification is a payment-status notification received from
// the payment gateway webhook
type GatewayNotification struct {
	OrderNumber       string
	TransactionStatus string
	Reference         string
	Method            string
	Amount            *decimal.Decimal
}

// MapGatewayStatus maps a raw gateway transaction status onto an order
// status. The second return value is false for statuses the engine does
// not recognize.
func MapGatewayStatus(raw string) (order.Status, bool) {
	switch raw {
	case "settlement", "capture", "success", "paid":
		return order.StatusPaid, true
	case "pending":
		return order.StatusAwaitingPayment, true
	case "deny", "cancel", "expire", "expired", "failure":
		return order.StatusCancelled, true
	case "refund", "partial_refund":
		return order.StatusRefunded, true
	}
	return "", false
}

// LifecycleService drives order status transitions and payment
// reconciliation
type LifecycleService struct {
	orders   order.Repository
	payments order.PaymentRepository
	tx       shared.TxManager
	logger   *zap.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(orders order.Repository, payments order.PaymentRepository, tx shared.TxManager, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		orders:   orders,
		payments: payments,
		tx:       tx,
		logger:   logger,
	}
}

// UpdateStatus transitions an order to the target status
func (s *LifecycleService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target order.Status) (*OrderResponse, error) {
	o, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.UpdateStatus(target); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("order_number", o.OrderNumber),
		zap.String("status", o.Status.String()))

	response := ToOrderResponse(o)
	return &response, nil
}

// Cancel cancels an order if its current status allows it
func (s *LifecycleService) Cancel(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.Cancel(); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled", zap.String("order_number", o.OrderNumber))

	response := ToOrderResponse(o)
	return &response, nil
}

// Delete removes an order that never left pending. Orders that have
// advanced, or that already spawned dependent orders, stay on record
// and can only be cancelled.
func (s *LifecycleService) Delete(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.findOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.CanDelete() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot delete order in %s status", o.Status))
		}

		children, err := s.orders.FindChildren(ctx, o.ID)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return shared.NewDomainError("INVALID_STATE", "Cannot delete an order with dependent orders")
		}

		if err := s.orders.Delete(ctx, o); err != nil {
			return err
		}
		s.logger.Info("order deleted", zap.String("order_number", o.OrderNumber))
		return nil
	})
}

// RecordPayment registers a settled payment against an order and
// reconciles the order's status from its payment records
func (s *LifecycleService) RecordPayment(ctx context.Context, orderID uuid.UUID, req RecordPaymentRequest) (*OrderResponse, error) {
	var response OrderResponse
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.findOrder(ctx, orderID)
		if err != nil {
			return err
		}

		payment, err := order.NewPayment(o.ID, req.Amount, req.Method, req.Reference)
		if err != nil {
			return err
		}
		if err := payment.MarkPaid(time.Now()); err != nil {
			return err
		}
		if err := s.payments.Save(ctx, payment); err != nil {
			return err
		}

		return s.reconcile(ctx, o, &response)
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// SyncPaymentStatus re-derives an order's status from its payment
// records. Safe to call repeatedly.
func (s *LifecycleService) SyncPaymentStatus(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	var response OrderResponse
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.findOrder(ctx, orderID)
		if err != nil {
			return err
		}
		return s.reconcile(ctx, o, &response)
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ApplyGatewayNotification maps a webhook notification onto the order's
// lifecycle. Settled payments are recorded and reconciled; other
// recognized statuses are applied as transitions. Notifications that
// match the order's current status are no-ops, so redelivered webhooks
// stay harmless.
func (s *LifecycleService) ApplyGatewayNotification(ctx context.Context, n GatewayNotification) (*OrderResponse, error) {
	target, ok := MapGatewayStatus(n.TransactionStatus)
	if !ok {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Unrecognized transaction status: %s", n.TransactionStatus))
	}

	var response OrderResponse
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByOrderNumber(ctx, n.OrderNumber)
		if err != nil {
			return err
		}
		if o == nil {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Order not found: %s", n.OrderNumber))
		}

		if target == order.StatusPaid {
			return s.applySettlement(ctx, o, n, &response)
		}

		if o.Status == target {
			response = ToOrderResponse(o)
			return nil
		}
		if err := o.UpdateStatus(target); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, o); err != nil {
			return err
		}

		s.logger.Info("gateway notification applied",
			zap.String("order_number", o.OrderNumber),
			zap.String("transaction_status", n.TransactionStatus),
			zap.String("status", o.Status.String()))

		response = ToOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// applySettlement records the settled payment (idempotent by gateway
// reference) and reconciles the order
func (s *LifecycleService) applySettlement(ctx context.Context, o *order.Order, n GatewayNotification, response *OrderResponse) error {
	if n.Reference != "" {
		existing, err := s.payments.FindByReference(ctx, n.Reference)
		if err != nil {
			return err
		}
		if existing != nil {
			return s.reconcile(ctx, o, response)
		}
	}

	amount := o.Total
	if n.Amount != nil {
		amount = *n.Amount
	}
	payment, err := order.NewPayment(o.ID, amount, n.Method, n.Reference)
	if err != nil {
		return err
	}
	if err := payment.MarkPaid(time.Now()); err != nil {
		return err
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return err
	}

	return s.reconcile(ctx, o, response)
}

// reconcile re-derives the order status from its payments and saves
// the order when the status changed
func (s *LifecycleService) reconcile(ctx context.Context, o *order.Order, response *OrderResponse) error {
	payments, err := s.payments.FindByOrderID(ctx, o.ID)
	if err != nil {
		return err
	}

	if o.ReconcilePayments(payments) {
		if err := s.orders.SaveWithLock(ctx, o); err != nil {
			return err
		}
		s.logger.Info("order status reconciled from payments",
			zap.String("order_number", o.OrderNumber),
			zap.String("status", o.Status.String()))
	}

	*response = ToOrderResponse(o)
	return nil
}

func (s *LifecycleService) findOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Order not found: %s", orderID))
	}
	return o, nil
}
