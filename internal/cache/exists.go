// Package cache fronts the ledger's read-only existence probe with Redis.
// Ledger records are never deleted, so a positive answer can be cached
// without invalidation concerns; negative answers are never cached because
// the digest may be registered at any moment.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docproof/internal/ledger"
	"docproof/pkg/domain"
)

const keyPrefix = "docproof:exists:"

// ExistenceCache answers "is this digest on the ledger" with a short-TTL
// Redis cache in front of ExistsView. A nil Redis client degrades to direct
// ledger probes, so wiring Redis stays optional.
type ExistenceCache struct {
	redis  *redis.Client
	ledger ledger.Client
	ttl    time.Duration
}

func NewExistenceCache(client *redis.Client, ledgerClient ledger.Client, ttl time.Duration) *ExistenceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ExistenceCache{redis: client, ledger: ledgerClient, ttl: ttl}
}

// Exists probes the cache, falling through to the ledger on a miss. Cache
// failures are treated as misses: the ledger answer wins.
func (c *ExistenceCache) Exists(ctx context.Context, d domain.Digest) (bool, error) {
	if c.redis != nil {
		// Cache misses and cache failures both fall through to the ledger; a
		// flaky cache must never fail a probe.
		cached, err := c.redis.Get(ctx, keyPrefix+d.String()).Result()
		if err == nil && cached == "1" {
			return true, nil
		}
	}

	exists, err := c.ledger.ExistsView(ctx, d)
	if err != nil {
		return false, fmt.Errorf("ledger existence probe: %w", err)
	}
	if exists && c.redis != nil {
		_ = c.redis.Set(ctx, keyPrefix+d.String(), "1", c.ttl).Err()
	}
	return exists, nil
}
