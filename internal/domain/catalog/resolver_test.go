package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasarlink/backend/internal/domain/shared"
)

type stubTaxSource struct {
	tax *Tax
	err error
}

func (s *stubTaxSource) DefaultTax(ctx context.Context) (*Tax, error) {
	return s.tax, s.err
}

func TestPriceResolver_SellPrice(t *testing.T) {
	resolver := NewPriceResolver(&stubTaxSource{})

	t.Run("returns latest price", func(t *testing.T) {
		product := &Product{
			ID:   uuid.New(),
			Code: "SKU-001",
			Prices: []ProductPrice{
				{SellPrice: decimal.NewFromInt(9000), CreatedAt: time.Now().Add(-time.Hour)},
				{SellPrice: decimal.NewFromInt(10000), CreatedAt: time.Now()},
			},
		}

		price, err := resolver.SellPrice(product)
		require.NoError(t, err)
		assert.True(t, price.Amount().Equal(decimal.NewFromInt(10000)))
	})

	t.Run("fails when no price recorded", func(t *testing.T) {
		product := &Product{ID: uuid.New(), Code: "SKU-002"}

		_, err := resolver.SellPrice(product)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}

func TestPriceResolver_DefaultTax(t *testing.T) {
	t.Run("returns configured tax", func(t *testing.T) {
		tax := &Tax{ID: uuid.New(), Name: "PPN 11%", Rate: decimal.NewFromInt(11)}
		resolver := NewPriceResolver(&stubTaxSource{tax: tax})

		got, err := resolver.DefaultTax(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tax.ID, got.ID)
	})

	t.Run("fails when tax record absent", func(t *testing.T) {
		resolver := NewPriceResolver(&stubTaxSource{tax: nil, err: shared.ErrNotFound})

		_, err := resolver.DefaultTax(context.Background())
		assert.Error(t, err)
	})
}

func TestProduct_IsBundle(t *testing.T) {
	plain := &Product{ID: uuid.New()}
	assert.False(t, plain.IsBundle())

	bundle := &Product{
		ID:       uuid.New(),
		BundleOf: []ProductBundleItem{{ComponentID: uuid.New(), Quantity: 3}},
	}
	assert.True(t, bundle.IsBundle())
}
