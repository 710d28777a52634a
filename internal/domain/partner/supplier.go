package partner

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a selling party. A supplier may also act as the buyer of
// an upstream supplier's order (see BuyerRef).
type Supplier struct {
	ID        uuid.UUID
	Code      string `gorm:"uniqueIndex"`
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
