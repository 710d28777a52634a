package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog product owned by exactly one supplier.
// The order engine only reads products; catalog management lives elsewhere.
type Product struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	Code       string // unique per supplier
	Name       string
	Prices     []ProductPrice      `gorm:"foreignKey:ProductID"`
	BundleOf   []ProductBundleItem `gorm:"foreignKey:BundleID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProductPrice is one entry in a product's price history.
// The engine always uses the most recent entry.
type ProductPrice struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	SellPrice decimal.Decimal `gorm:"type:decimal(14,2)"`
	CreatedAt time.Time
}

// ProductBundleItem declares one component of a bundle product
type ProductBundleItem struct {
	ID          uuid.UUID
	BundleID    uuid.UUID // the bundle product
	ComponentID uuid.UUID // the component product
	Quantity    int64     // component units per bundle unit
	Component   *Product  `gorm:"foreignKey:ComponentID"`
}

// LatestPrice returns the most recently recorded sell price.
// The price history is expected to be loaded ordered by creation time.
func (p *Product) LatestPrice() (decimal.Decimal, bool) {
	if len(p.Prices) == 0 {
		return decimal.Decimal{}, false
	}
	return p.Prices[len(p.Prices)-1].SellPrice, true
}

// IsBundle reports whether the product declares a bundle composition
func (p *Product) IsBundle() bool {
	return len(p.BundleOf) > 0
}
