package catalog

import (
	"context"
	"fmt"

	"github.com/pasarlink/backend/internal/domain/shared"
	"github.com/pasarlink/backend/internal/domain/shared/valueobject"
)

// TaxSource resolves the default tax record. The production implementation
// is a read-through cache over TaxRepository; tests may supply the
// repository directly.
type TaxSource interface {
	DefaultTax(ctx context.Context) (*Tax, error)
}

// PriceResolver resolves current sell prices and the default tax rate.
// It is a pure lookup service; a missing price or tax record is fatal
// to the enclosing order-creation attempt.
type PriceResolver struct {
	taxes TaxSource
}

// NewPriceResolver creates a new PriceResolver
func NewPriceResolver(taxes TaxSource) *PriceResolver {
	return &PriceResolver{taxes: taxes}
}

// SellPrice returns the product's most recently recorded sell price
func (r *PriceResolver) SellPrice(product *Product) (valueobject.Money, error) {
	price, ok := product.LatestPrice()
	if !ok {
		return valueobject.Money{}, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("No price recorded for product %s", product.Code))
	}
	return valueobject.NewMoneyIDR(price), nil
}

// DefaultTax returns the single configured default tax record
func (r *PriceResolver) DefaultTax(ctx context.Context) (*Tax, error) {
	tax, err := r.taxes.DefaultTax(ctx)
	if err != nil {
		return nil, err
	}
	if tax == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Default tax record not found")
	}
	return tax, nil
}

// RepositoryTaxSource adapts a TaxRepository into an uncached TaxSource
type RepositoryTaxSource struct {
	repo    TaxRepository
	taxName string
}

// NewRepositoryTaxSource creates a TaxSource that reads the named tax
// record on every call
func NewRepositoryTaxSource(repo TaxRepository, taxName string) *RepositoryTaxSource {
	return &RepositoryTaxSource{repo: repo, taxName: taxName}
}

// DefaultTax reads the configured default tax record
func (s *RepositoryTaxSource) DefaultTax(ctx context.Context) (*Tax, error) {
	return s.repo.FindByName(ctx, s.taxName)
}
