package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pasarlink/backend/internal/domain/catalog"
)

// InMemoryTaxCache is a read-through cache over the default tax record.
// The record changes rarely, so a short TTL keeps order creation from
// hitting the database for every request.
type InMemoryTaxCache struct {
	source catalog.TaxSource
	ttl    time.Duration

	mu        sync.RWMutex
	cached    *catalog.Tax
	fetchedAt time.Time
}

// NewInMemoryTaxCache creates a read-through cache over source
func NewInMemoryTaxCache(source catalog.TaxSource, ttl time.Duration) *InMemoryTaxCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryTaxCache{source: source, ttl: ttl}
}

// DefaultTax returns the cached tax record, refreshing it from the
// source when the TTL elapsed. Source failures are not cached.
func (c *InMemoryTaxCache) DefaultTax(ctx context.Context) (*catalog.Tax, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		tax := c.cached
		c.mu.RUnlock()
		return tax, nil
	}
	c.mu.RUnlock()

	tax, err := c.source.DefaultTax(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = tax
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return tax, nil
}

// Invalidate drops the cached record so the next read hits the source
func (c *InMemoryTaxCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
