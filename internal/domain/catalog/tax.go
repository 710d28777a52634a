package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tax is a configured tax record. The engine applies the single default
// tax (looked up by name) to every order line.
type Tax struct {
	ID        uuid.UUID
	Name      string          `gorm:"uniqueIndex"`
	Rate      decimal.Decimal `gorm:"type:decimal(5,2)"` // percentage, e.g. 11.00
	CreatedAt time.Time
	UpdatedAt time.Time
}
