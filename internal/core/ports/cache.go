// internal/core/ports/cache.go
package ports

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when a key is absent. A miss is an
// expected outcome, not a failure.
var ErrCacheMiss = errors.New("cache miss")

// KeyValueStore is the durable client-state port. The cart and comparator
// stores persist their snapshots through it, and the catalog lookup uses
// it as a cache-aside layer. Implemented by the Redis adapter, which
// carries a wider surface; the port names only what the core calls.
type KeyValueStore interface {
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}
