package order

import (
	"sort"
	"strings"

	"github.com/pasarlink/backend/internal/domain/order"
)

// BundlingStrategy decides how a triggering order's items are grouped
// when propagating to the first upstream tier, and which bundle product
// code each group maps to at the target supplier.
type BundlingStrategy interface {
	// GroupItems partitions the items into bundling groups
	GroupItems(items []order.OrderItem) [][]order.OrderItem

	// BundleCode derives the candidate bundle product code for a group
	BundleCode(group []order.OrderItem) string
}

// DefaultBundlingStrategy bundles the whole order as a single group and
// derives the bundle code from the sorted component product codes.
type DefaultBundlingStrategy struct{}

// NewDefaultBundlingStrategy creates the default strategy
func NewDefaultBundlingStrategy() *DefaultBundlingStrategy {
	return &DefaultBundlingStrategy{}
}

// GroupItems returns all items as one group
func (s *DefaultBundlingStrategy) GroupItems(items []order.OrderItem) [][]order.OrderItem {
	if len(items) == 0 {
		return nil
	}
	group := make([]order.OrderItem, len(items))
	copy(group, items)
	return [][]order.OrderItem{group}
}

// BundleCode joins the group's distinct product codes, sorted, with
// underscores under a BUNDLE_ prefix
func (s *DefaultBundlingStrategy) BundleCode(group []order.OrderItem) string {
	seen := make(map[string]struct{}, len(group))
	codes := make([]string, 0, len(group))
	for _, item := range group {
		if _, ok := seen[item.ProductCode]; ok {
			continue
		}
		seen[item.ProductCode] = struct{}{}
		codes = append(codes, item.ProductCode)
	}
	sort.Strings(codes)
	return "BUNDLE_" + strings.Join(codes, "_")
}
