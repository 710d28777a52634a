package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pasarlink/backend/internal/domain/catalog"
)

const defaultTaxCacheKey = "catalog:default_tax"

// RedisTaxCache is a read-through cache over the default tax record
// shared across instances. Redis outages degrade to reading the source
// directly instead of failing order creation.
type RedisTaxCache struct {
	client *redis.Client
	source catalog.TaxSource
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTaxCache creates a Redis-backed read-through cache over source
func NewRedisTaxCache(client *redis.Client, source catalog.TaxSource, ttl time.Duration, logger *zap.Logger) *RedisTaxCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisTaxCache{client: client, source: source, ttl: ttl, logger: logger}
}

// DefaultTax returns the cached tax record, refreshing it from the
// source on miss
func (c *RedisTaxCache) DefaultTax(ctx context.Context) (*catalog.Tax, error) {
	payload, err := c.client.Get(ctx, defaultTaxCacheKey).Bytes()
	if err == nil {
		var tax catalog.Tax
		if err := json.Unmarshal(payload, &tax); err == nil {
			return &tax, nil
		}
		c.logger.Warn("corrupt tax cache entry, refreshing", zap.Error(err))
	} else if err != redis.Nil {
		c.logger.Warn("tax cache read failed, falling back to source", zap.Error(err))
	}

	tax, err := c.source.DefaultTax(ctx)
	if err != nil {
		return nil, err
	}
	if tax == nil {
		return nil, nil
	}

	if payload, err := json.Marshal(tax); err == nil {
		if err := c.client.Set(ctx, defaultTaxCacheKey, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("tax cache write failed", zap.Error(err))
		}
	}

	return tax, nil
}

// Invalidate drops the shared cache entry
func (c *RedisTaxCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, defaultTaxCacheKey).Err()
}
