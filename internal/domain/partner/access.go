package partner

import (
	"time"

	"github.com/google/uuid"
)

// SupplierAccess is a directed edge in the supplier-access graph:
// the viewer is permitted to, and does, source fulfillment from the
// target. Edges are managed by an external access capability and are
// read-only inside the order engine.
type SupplierAccess struct {
	ID        uuid.UUID
	ViewerID  uuid.UUID `gorm:"index"`
	TargetID  uuid.UUID `gorm:"index"`
	Viewer    *Supplier `gorm:"foreignKey:ViewerID"`
	Target    *Supplier `gorm:"foreignKey:TargetID"`
	CreatedAt time.Time
}
