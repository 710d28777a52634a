package partner

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a buying party. Customer management (addresses, tax ids,
// bank accounts) is handled outside the order engine; only the fields
// the engine reads are modeled here.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
