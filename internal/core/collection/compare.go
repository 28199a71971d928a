// internal/core/collection/compare.go
package collection

import (
	"context"
	"log/slog"
	"time"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

const compareKeyPrefix = "compare:"

// DefaultCompareCapacity is the number of distinct products a comparison
// can hold.
const DefaultCompareCapacity = 4

// Comparator is the session product comparator: capacity-bounded, no
// duplicates, boolean add outcome.
type Comparator struct {
	store    *Store[domain.ComparisonItem]
	capacity int
}

// NewComparator binds a comparator to a session, persisted under
// "compare:<session>". A non-positive capacity falls back to the
// default.
func NewComparator(sessionID string, capacity int, ttl time.Duration, kv ports.KeyValueStore, logger *slog.Logger) *Comparator {
	if capacity <= 0 {
		capacity = DefaultCompareCapacity
	}
	return &Comparator{
		store:    NewStore[domain.ComparisonItem](compareKeyPrefix+sessionID, ttl, kv, logger),
		capacity: capacity,
	}
}

// Hydrate loads the persisted comparison once; see Store.Hydrate.
func (c *Comparator) Hydrate(ctx context.Context) { c.store.Hydrate(ctx) }

// Add inserts the product and reports success. Adding a product already
// present, or adding to a full comparison, is a no-op returning false.
func (c *Comparator) Add(ctx context.Context, item domain.ComparisonItem) bool {
	if c.store.Contains(item.ProductID) || c.IsFull() {
		return false
	}
	c.store.Append(ctx, item)
	return true
}

// Toggle removes the product when present, otherwise attempts an add.
// The return value is the product's membership after the call: false
// after a removal, the add outcome otherwise.
func (c *Comparator) Toggle(ctx context.Context, item domain.ComparisonItem) bool {
	if c.store.Remove(ctx, item.ProductID) {
		return false
	}
	return c.Add(ctx, item)
}

// Remove deletes the product unconditionally.
func (c *Comparator) Remove(ctx context.Context, productID int64) { c.store.Remove(ctx, productID) }

// Clear empties the comparison and its persisted snapshot.
func (c *Comparator) Clear(ctx context.Context) { c.store.Clear(ctx) }

// Contains reports whether the product is in the comparison.
func (c *Comparator) Contains(productID int64) bool { return c.store.Contains(productID) }

// Items returns the compared products in insertion order.
func (c *Comparator) Items() []domain.ComparisonItem { return c.store.Entries() }

// Count returns the number of compared products.
func (c *Comparator) Count() int { return c.store.Count() }

// IsEmpty reports whether the comparison has no products.
func (c *Comparator) IsEmpty() bool { return c.store.IsEmpty() }

// IsFull reports whether the comparison is at capacity.
func (c *Comparator) IsFull() bool { return c.store.Count() >= c.capacity }
