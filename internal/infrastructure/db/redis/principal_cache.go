package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noosyn/product-api/internal/api/metrics"
	"github.com/noosyn/product-api/internal/core/domain"
)

// PrincipalCache stores the current role of a username so that authenticated
// requests can skip the user store. Key format: principal:<username>
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache creates a PrincipalCache whose entries expire after ttl.
func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

// Get returns the cached role. ok is false on a miss or when the stored value
// is not a known role.
func (c *PrincipalCache) Get(ctx context.Context, username string) (domain.Role, bool, error) {
	val, err := c.client.Get(ctx, c.key(username)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.PrincipalCacheTotal.WithLabelValues("miss").Inc()
		return "", false, nil
	}
	if err != nil {
		metrics.PrincipalCacheTotal.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("principal cache get: %w", err)
	}

	role := domain.Role(val)
	if !role.Valid() {
		metrics.PrincipalCacheTotal.WithLabelValues("miss").Inc()
		return "", false, nil
	}
	metrics.PrincipalCacheTotal.WithLabelValues("hit").Inc()
	return role, true, nil
}

// Set records role for username (expires after the configured ttl).
func (c *PrincipalCache) Set(ctx context.Context, username string, role domain.Role) error {
	if err := c.client.Set(ctx, c.key(username), string(role), c.ttl).Err(); err != nil {
		return fmt.Errorf("principal cache set: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *PrincipalCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *PrincipalCache) key(username string) string {
	return "principal:" + username
}
