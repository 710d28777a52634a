package partner

import (
	"time"

	"github.com/google/uuid"
)

// AddressOwnerType distinguishes who an address belongs to
type AddressOwnerType string

const (
	AddressOwnerCustomer AddressOwnerType = "customer"
	AddressOwnerSupplier AddressOwnerType = "supplier"
)

// Address is a delivery address owned by a customer or a supplier
type Address struct {
	ID         uuid.UUID
	OwnerType  AddressOwnerType `gorm:"index:idx_addresses_owner"`
	OwnerID    uuid.UUID        `gorm:"index:idx_addresses_owner"`
	Label      string
	Street     string
	City       string
	Province   string
	PostalCode string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
