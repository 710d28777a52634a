package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTxManager runs functions inside a gorm transaction, carrying the
// transactional handle in the context so repositories join it
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// Do runs fn inside a transaction. A non-nil error from fn rolls the
// whole transaction back.
func (m *GormTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom returns the transactional handle from the context when inside
// a unit of work, the plain connection otherwise
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
