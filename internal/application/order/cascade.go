package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pasarlink/backend/internal/domain/catalog"
	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// plannedItem is one transformed line destined for an upstream order
type plannedItem struct {
	product  *catalog.Product
	quantity int64
}

// CascadePlanner generates the upstream orders needed to fulfill an
// order when its supplier itself sources from other suppliers. It walks
// the supplier-access graph breadth-first, transforming items tier by
// tier, bounded at a maximum depth.
type CascadePlanner struct {
	accesses  partner.SupplierAccessRepository
	addresses partner.AddressRepository
	products  catalog.ProductRepository
	resolver  *catalog.PriceResolver
	allocator order.NumberAllocator
	orders    order.Repository
	bundling  BundlingStrategy
	maxDepth  int
	logger    *zap.Logger
}

// NewCascadePlanner creates a new CascadePlanner
func NewCascadePlanner(
	accesses partner.SupplierAccessRepository,
	addresses partner.AddressRepository,
	products catalog.ProductRepository,
	resolver *catalog.PriceResolver,
	allocator order.NumberAllocator,
	orders order.Repository,
	bundling BundlingStrategy,
	maxDepth int,
	logger *zap.Logger,
) *CascadePlanner {
	if maxDepth <= 0 || maxDepth > order.MaxCascadeDepth {
		maxDepth = order.MaxCascadeDepth
	}
	if bundling == nil {
		bundling = NewDefaultBundlingStrategy()
	}
	return &CascadePlanner{
		accesses:  accesses,
		addresses: addresses,
		products:  products,
		resolver:  resolver,
		allocator: allocator,
		orders:    orders,
		bundling:  bundling,
		maxDepth:  maxDepth,
		logger:    logger,
	}
}

// Expand creates the dependent orders for root, breadth-first. It is
// meant to run inside the same transaction that persists root. A failure
// for one upstream target never aborts sibling targets; only the failed
// branch is dropped.
func (p *CascadePlanner) Expand(ctx context.Context, root *order.Order) ([]*order.Order, error) {
	created := make([]*order.Order, 0)
	queue := []*order.Order{root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.Depth >= p.maxDepth {
			p.logger.Warn("cascade depth limit reached, not expanding further",
				zap.String("order_number", current.OrderNumber),
				zap.Int("depth", current.Depth))
			continue
		}

		edges, err := p.accesses.FindByViewer(ctx, current.SupplierID)
		if err != nil {
			return nil, err
		}

		for _, edge := range edges {
			child, err := p.expandTarget(ctx, current, edge.TargetID)
			if err != nil {
				p.logger.Error("cascade branch failed, continuing with siblings",
					zap.String("order_number", current.OrderNumber),
					zap.String("target_supplier_id", edge.TargetID.String()),
					zap.Error(err))
				continue
			}
			if child == nil {
				continue
			}
			created = append(created, child)
			queue = append(queue, child)
		}
	}

	return created, nil
}

// expandTarget creates one dependent order for one upstream supplier.
// A nil order with nil error means the transform yielded no items and
// the target was skipped.
func (p *CascadePlanner) expandTarget(ctx context.Context, current *order.Order, targetID uuid.UUID) (*order.Order, error) {
	address, err := p.addresses.FindDefaultForOwner(ctx, partner.AddressOwnerSupplier, targetID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Upstream supplier has no default delivery address: "+targetID.String())
	}

	planned, err := p.transformItems(ctx, current, targetID)
	if err != nil {
		return nil, err
	}
	if len(planned) == 0 {
		p.logger.Warn("item transform yielded no items, skipping upstream target",
			zap.String("order_number", current.OrderNumber),
			zap.String("target_supplier_id", targetID.String()))
		return nil, nil
	}

	tax, err := p.resolver.DefaultTax(ctx)
	if err != nil {
		return nil, err
	}

	number, err := p.allocator.Next(ctx, order.NumberPrefix(time.Now()))
	if err != nil {
		return nil, err
	}

	child, err := order.NewOrder(number, partner.SupplierBuyer(current.SupplierID), targetID)
	if err != nil {
		return nil, err
	}
	if err := child.LinkParent(current.ID, current.Depth+1); err != nil {
		return nil, err
	}
	if err := child.SetDeliveryAddress(address.ID); err != nil {
		return nil, err
	}

	for _, item := range planned {
		price, err := p.resolver.SellPrice(item.product)
		if err != nil {
			return nil, err
		}
		if _, err := child.AddItemWithTax(item.product.ID, item.product.Name, item.product.Code,
			item.quantity, price, tax.ID, tax.Name, tax.Rate); err != nil {
			return nil, err
		}
	}

	if err := p.orders.Save(ctx, child); err != nil {
		return nil, err
	}

	p.logger.Info("dependent order created",
		zap.String("order_number", child.OrderNumber),
		zap.String("parent_order_number", current.OrderNumber),
		zap.String("supplier_id", targetID.String()),
		zap.Int("depth", child.Depth))

	return child, nil
}

// transformItems applies the tier-specific transform for the hop from
// current's tier to the target supplier
func (p *CascadePlanner) transformItems(ctx context.Context, current *order.Order, targetID uuid.UUID) ([]plannedItem, error) {
	switch current.Depth {
	case 0:
		return p.transformBundling(ctx, current, targetID)
	case 1:
		return p.transformUnbundling(ctx, current, targetID)
	default:
		return p.transformDirect(ctx, current.Items, targetID)
	}
}

// transformBundling groups items and replaces each group with the
// target supplier's matching bundle product when one exists. Groups
// without a matching bundle fall back to direct mapping so items are
// never silently dropped.
func (p *CascadePlanner) transformBundling(ctx context.Context, current *order.Order, targetID uuid.UUID) ([]plannedItem, error) {
	planned := make([]plannedItem, 0, len(current.Items))

	for _, group := range p.bundling.GroupItems(current.Items) {
		code := p.bundling.BundleCode(group)
		bundle, err := p.products.FindBySupplierAndCode(ctx, targetID, code)
		if err != nil {
			return nil, err
		}
		if bundle != nil {
			var units int64
			for _, item := range group {
				units += item.Quantity
			}
			planned = append(planned, plannedItem{product: bundle, quantity: units})
			continue
		}

		direct, err := p.transformDirect(ctx, group, targetID)
		if err != nil {
			return nil, err
		}
		planned = append(planned, direct...)
	}

	return planned, nil
}

// transformUnbundling explodes bundle items into their components at
// the target supplier. Non-bundle items fall back to direct mapping.
func (p *CascadePlanner) transformUnbundling(ctx context.Context, current *order.Order, targetID uuid.UUID) ([]plannedItem, error) {
	planned := make([]plannedItem, 0, len(current.Items))

	for _, item := range current.Items {
		components, err := p.products.FindBundleComponents(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if len(components) == 0 {
			direct, err := p.transformDirect(ctx, []order.OrderItem{item}, targetID)
			if err != nil {
				return nil, err
			}
			planned = append(planned, direct...)
			continue
		}

		for _, component := range components {
			if component.Component == nil {
				continue
			}
			match, err := p.products.FindBySupplierAndCode(ctx, targetID, component.Component.Code)
			if err != nil {
				return nil, err
			}
			if match == nil {
				p.logger.Warn("bundle component not available at upstream supplier, skipping",
					zap.String("component_code", component.Component.Code),
					zap.String("target_supplier_id", targetID.String()))
				continue
			}
			planned = append(planned, plannedItem{
				product:  match,
				quantity: item.Quantity * component.Quantity,
			})
		}
	}

	return planned, nil
}

// transformDirect maps items one-to-one onto the target supplier's
// products by product code, skipping codes the target does not carry
func (p *CascadePlanner) transformDirect(ctx context.Context, items []order.OrderItem, targetID uuid.UUID) ([]plannedItem, error) {
	planned := make([]plannedItem, 0, len(items))

	for _, item := range items {
		match, err := p.products.FindBySupplierAndCode(ctx, targetID, item.ProductCode)
		if err != nil {
			return nil, err
		}
		if match == nil {
			p.logger.Warn("product not available at upstream supplier, skipping",
				zap.String("product_code", item.ProductCode),
				zap.String("target_supplier_id", targetID.String()))
			continue
		}
		planned = append(planned, plannedItem{product: match, quantity: item.Quantity})
	}

	return planned, nil
}
