package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// QueryService serves order read operations: single fetch with dynamic
// buyer resolution, paginated lists and the dependent-order tree
type QueryService struct {
	orders    order.Repository
	payments  order.PaymentRepository
	buyers    *partner.BuyerResolver
	addresses partner.AddressRepository
	logger    *zap.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(
	orders order.Repository,
	payments order.PaymentRepository,
	buyers *partner.BuyerResolver,
	addresses partner.AddressRepository,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		orders:    orders,
		payments:  payments,
		buyers:    buyers,
		addresses: addresses,
		logger:    logger,
	}
}

// GetByID fetches an order with its buyer resolved against whichever
// table the buyer reference points into, and its delivery address
// resolved best-effort
func (s *QueryService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Order not found: %s", orderID))
	}

	response := ToOrderResponse(o)

	buyer, err := s.buyers.Resolve(ctx, o.Buyer)
	if err != nil {
		// A dangling buyer reference should not hide the order itself.
		s.logger.Warn("buyer resolution failed",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	} else {
		response = response.WithBuyer(buyer)
	}

	response.DeliveryAddress = s.resolveAddress(ctx, o)

	return &response, nil
}

// ListByBuyer lists orders placed by the given buyer, newest first
func (s *QueryService) ListByBuyer(ctx context.Context, ref partner.BuyerRef, filter ListFilter) (*shared.Paginated[OrderResponse], error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	domainFilter := toDomainFilter(filter)
	orders, total, err := s.orders.FindByBuyer(ctx, ref, domainFilter)
	if err != nil {
		return nil, err
	}

	// One buyer for every row, so resolve it once.
	buyer, err := s.buyers.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i]).WithBuyer(buyer)
	}

	result := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// ListBySupplier lists orders fulfilled by the given supplier
func (s *QueryService) ListBySupplier(ctx context.Context, supplierID uuid.UUID, filter ListFilter) (*shared.Paginated[OrderResponse], error) {
	domainFilter := toDomainFilter(filter)
	orders, total, err := s.orders.FindBySupplier(ctx, supplierID, domainFilter)
	if err != nil {
		return nil, err
	}

	items, err := s.withResolvedBuyers(ctx, orders)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// Incoming lists the orders a supplier has to fulfill, with buyer
// identities and delivery addresses resolved for display
func (s *QueryService) Incoming(ctx context.Context, supplierID uuid.UUID, filter ListFilter) (*shared.Paginated[OrderResponse], error) {
	domainFilter := toDomainFilter(filter)
	orders, total, err := s.orders.FindBySupplier(ctx, supplierID, domainFilter)
	if err != nil {
		return nil, err
	}

	items, err := s.withResolvedBuyers(ctx, orders)
	if err != nil {
		return nil, err
	}
	addresses := s.resolveAddressPage(ctx, orders)
	for i := range orders {
		if orders[i].DeliveryAddressID != nil {
			items[i].DeliveryAddress = addresses[*orders[i].DeliveryAddressID]
		}
	}

	result := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// Outgoing lists the upstream orders a supplier placed while acting as
// a buyer in the cascade
func (s *QueryService) Outgoing(ctx context.Context, supplierID uuid.UUID, filter ListFilter) (*shared.Paginated[OrderResponse], error) {
	return s.ListByBuyer(ctx, partner.SupplierBuyer(supplierID), filter)
}

// Tree fetches an order together with its dependent orders, recursively
func (s *QueryService) Tree(ctx context.Context, rootID uuid.UUID) (*OrderTreeResponse, error) {
	root, err := s.orders.FindByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Order not found: %s", rootID))
	}

	tree, err := s.buildTree(ctx, root, 0)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// ListPayments lists the payment records of an order
func (s *QueryService) ListPayments(ctx context.Context, orderID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = ToPaymentResponse(&payments[i])
	}
	return items, nil
}

func (s *QueryService) buildTree(ctx context.Context, o *order.Order, depth int) (*OrderTreeResponse, error) {
	tree := &OrderTreeResponse{OrderResponse: ToOrderResponse(o)}
	if depth >= order.MaxCascadeDepth {
		return tree, nil
	}

	children, err := s.orders.FindChildren(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	for i := range children {
		child, err := s.buildTree(ctx, &children[i], depth+1)
		if err != nil {
			return nil, err
		}
		tree.Children = append(tree.Children, *child)
	}

	return tree, nil
}

// withResolvedBuyers converts orders to responses, resolving each
// distinct buyer exactly once regardless of row count
func (s *QueryService) withResolvedBuyers(ctx context.Context, orders []order.Order) ([]OrderResponse, error) {
	resolved := make(map[partner.BuyerRef]*partner.Buyer)
	for i := range orders {
		ref := orders[i].Buyer
		if _, ok := resolved[ref]; ok {
			continue
		}
		buyer, err := s.buyers.Resolve(ctx, ref)
		if err != nil {
			s.logger.Warn("buyer resolution failed",
				zap.String("order_number", orders[i].OrderNumber),
				zap.Error(err))
			resolved[ref] = nil
			continue
		}
		resolved[ref] = buyer
	}

	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i]).WithBuyer(resolved[orders[i].Buyer])
	}
	return items, nil
}

// resolveAddress resolves the order's delivery address reference,
// best-effort
func (s *QueryService) resolveAddress(ctx context.Context, o *order.Order) *AddressResponse {
	if o.DeliveryAddressID == nil {
		return nil
	}
	address, err := s.addresses.FindByID(ctx, *o.DeliveryAddressID)
	if err != nil || address == nil {
		s.logger.Warn("delivery address resolution failed",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return nil
	}
	return toAddressResponse(address)
}

// resolveAddressPage batch-loads the distinct delivery addresses of a
// page of orders in one query, best-effort
func (s *QueryService) resolveAddressPage(ctx context.Context, orders []order.Order) map[uuid.UUID]*AddressResponse {
	ids := make([]uuid.UUID, 0, len(orders))
	seen := make(map[uuid.UUID]struct{}, len(orders))
	for i := range orders {
		id := orders[i].DeliveryAddressID
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	if len(ids) == 0 {
		return nil
	}

	addresses, err := s.addresses.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("delivery address batch resolution failed", zap.Error(err))
		return nil
	}

	resolved := make(map[uuid.UUID]*AddressResponse, len(addresses))
	for _, address := range addresses {
		resolved[address.ID] = toAddressResponse(address)
	}
	return resolved
}

func toAddressResponse(address *partner.Address) *AddressResponse {
	return &AddressResponse{
		ID:         address.ID,
		Label:      address.Label,
		Street:     address.Street,
		City:       address.City,
		Province:   address.Province,
		PostalCode: address.PostalCode,
	}
}

// toDomainFilter maps the transport filter onto the repository filter
func toDomainFilter(filter ListFilter) shared.Filter {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	domainFilter.Normalize()
	if filter.Status != nil {
		domainFilter.Filters["status"] = filter.Status.String()
	}
	return domainFilter
}
