package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pasarlink/backend/internal/domain/catalog"
	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
	"github.com/pasarlink/backend/internal/domain/shared/valueobject"
)

// Service handles order creation: line-item construction, cascade
// propagation, invoice issuance and accounting notification
type Service struct {
	orders    order.Repository
	products  catalog.ProductRepository
	buyers    *partner.BuyerResolver
	resolver  *catalog.PriceResolver
	allocator order.NumberAllocator
	cascade   *CascadePlanner
	tx        shared.TxManager
	invoicer  Invoicer
	notifier  AccountingNotifier
	retries   int
	logger    *zap.Logger
}

// NewService creates a new order Service. retries bounds how often a
// creation transaction is replayed after losing an order-number race.
func NewService(
	orders order.Repository,
	products catalog.ProductRepository,
	buyers *partner.BuyerResolver,
	resolver *catalog.PriceResolver,
	allocator order.NumberAllocator,
	cascade *CascadePlanner,
	tx shared.TxManager,
	invoicer Invoicer,
	notifier AccountingNotifier,
	retries int,
	logger *zap.Logger,
) *Service {
	if retries <= 0 {
		retries = 3
	}
	return &Service{
		orders:    orders,
		products:  products,
		buyers:    buyers,
		resolver:  resolver,
		allocator: allocator,
		cascade:   cascade,
		tx:        tx,
		invoicer:  invoicer,
		notifier:  notifier,
		retries:   retries,
		logger:    logger,
	}
}

// Create creates a root order with priced, taxed line items, expands
// the supplier cascade in the same transaction, then issues the payment
// invoice and notifies accounting. Invoice failure does not roll back
// the order; the response reports it as pending instead.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	buyer, err := s.buyers.Resolve(ctx, partner.BuyerRef{Kind: req.BuyerKind, ID: req.BuyerID})
	if err != nil {
		return nil, err
	}

	products, err := s.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	supplierID, err := singleSupplier(products)
	if err != nil {
		return nil, err
	}

	tax, err := s.resolver.DefaultTax(ctx)
	if err != nil {
		return nil, err
	}

	// Two creators racing on a fresh number prefix can both pick the
	// same suffix; the loser's insert fails on the order_number unique
	// index and surfaces as a concurrency conflict. Replay the whole
	// transaction so a fresh number is allocated.
	var root *order.Order
	for attempt := 1; ; attempt++ {
		root = nil
		err = s.tx.Do(ctx, func(ctx context.Context) error {
			number, err := s.allocator.Next(ctx, order.NumberPrefix(time.Now()))
			if err != nil {
				return err
			}

			root, err = order.NewOrder(number, partner.BuyerRef{Kind: req.BuyerKind, ID: req.BuyerID}, supplierID)
			if err != nil {
				return err
			}

			for _, input := range req.Items {
				product := products[input.ProductID]
				price, err := s.resolver.SellPrice(product)
				if err != nil {
					return err
				}
				if _, err := root.AddItemWithTax(product.ID, product.Name, product.Code,
					input.Quantity, price, tax.ID, tax.Name, tax.Rate); err != nil {
					return err
				}
			}

			if req.ShippingCost != nil {
				cost, err := valueobject.NewMoney(*req.ShippingCost, valueobject.DefaultCurrency)
				if err != nil {
					return err
				}
				if err := root.SetShippingCost(cost); err != nil {
					return err
				}
			}
			if req.Notes != "" {
				root.SetNotes(req.Notes)
			}
			if req.DeliveryAddressID != nil {
				if err := root.SetDeliveryAddress(*req.DeliveryAddressID); err != nil {
					return err
				}
			}

			if err := s.orders.Save(ctx, root); err != nil {
				return err
			}

			_, err = s.cascade.Expand(ctx, root)
			return err
		})
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= s.retries {
			return nil, err
		}
		s.logger.Warn("order number race lost, retrying creation",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	invoicePending := !s.issueInvoice(ctx, root, buyer)
	s.notifyAccounting(ctx, root)

	response := ToOrderResponse(root).WithBuyer(buyer)
	return &CreateOrderResponse{Order: response, InvoicePending: invoicePending}, nil
}

// issueInvoice asks the payment gateway for an invoice and stores the
// reference on the order. Returns false when the invoice could not be
// issued; the order itself stays committed.
func (s *Service) issueInvoice(ctx context.Context, root *order.Order, buyer *partner.Buyer) bool {
	invoice, err := s.invoicer.CreateInvoice(ctx, InvoiceRequest{
		ExternalID:  root.OrderNumber,
		Amount:      root.Total,
		PayerEmail:  buyer.Email,
		Description: fmt.Sprintf("Payment for order %s", root.OrderNumber),
	})
	if err != nil {
		s.logger.Error("invoice creation failed, order kept with invoice pending",
			zap.String("order_number", root.OrderNumber),
			zap.Error(err))
		return false
	}

	if err := root.AttachInvoice(invoice.URL, invoice.ExpiresAt); err != nil {
		s.logger.Error("failed to attach invoice to order",
			zap.String("order_number", root.OrderNumber),
			zap.Error(err))
		return false
	}
	if err := s.orders.SaveWithLock(ctx, root); err != nil {
		s.logger.Error("failed to persist invoice reference",
			zap.String("order_number", root.OrderNumber),
			zap.Error(err))
		return false
	}

	return true
}

// notifyAccounting sends the best-effort order-created notification
func (s *Service) notifyAccounting(ctx context.Context, root *order.Order) {
	notification := OrderNotification{
		OrderID:     root.ID.String(),
		OrderNumber: root.OrderNumber,
		SupplierID:  root.SupplierID.String(),
		BuyerKind:   string(root.Buyer.Kind),
		BuyerID:     root.Buyer.ID.String(),
		Subtotal:    root.Subtotal,
		TaxTotal:    root.TaxTotal,
		Total:       root.Total,
		CreatedAt:   root.CreatedAt,
	}
	if err := s.notifier.NotifyOrderCreated(ctx, notification); err != nil {
		s.logger.Warn("accounting notification failed",
			zap.String("order_number", root.OrderNumber),
			zap.Error(err))
	}
}

// resolveProducts batch-loads all referenced products in one query and
// reports every missing id at once
func (s *Service) resolveProducts(ctx context.Context, items []CreateOrderItemInput) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Products not found: %s", strings.Join(missing, ", ")))
	}

	return byID, nil
}

// validateItems rejects empty item lists and non-positive quantities
func validateItems(items []CreateOrderItemInput) error {
	if len(items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_INPUT", "Item product ID cannot be empty")
		}
		if item.Quantity <= 0 {
			return shared.NewDomainError("INVALID_INPUT", "Item quantity must be positive")
		}
	}
	return nil
}

// singleSupplier asserts all products belong to one supplier and
// returns it
func singleSupplier(products map[uuid.UUID]*catalog.Product) (uuid.UUID, error) {
	var supplierID uuid.UUID
	for _, product := range products {
		if supplierID == uuid.Nil {
			supplierID = product.SupplierID
			continue
		}
		if product.SupplierID != supplierID {
			return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "All products must be from the same supplier")
		}
	}
	if supplierID == uuid.Nil {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}
	return supplierID, nil
}
