// Package cache provides the lookup cache used for tenant scoped reads such as
// active locations. Values are stored JSON encoded in every implementation so
// callers see the same behaviour against Redis and in memory.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON encodable values under string keys with a TTL.
type Cache interface {
	// Get decodes the value for key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}
