// internal/core/collection/cart.go
package collection

import (
	"context"
	"log/slog"
	"time"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

const cartKeyPrefix = "cart:"

// Cart is the session shopping cart: unbounded capacity, merge-on-add
// quantities clamped to each line's stock ceiling.
type Cart struct {
	store *Store[domain.CartItem]
}

// NewCart binds a cart to a session, persisted under "cart:<session>".
func NewCart(sessionID string, ttl time.Duration, kv ports.KeyValueStore, logger *slog.Logger) *Cart {
	return &Cart{
		store: NewStore[domain.CartItem](cartKeyPrefix+sessionID, ttl, kv, logger),
	}
}

// Hydrate loads the persisted cart once; see Store.Hydrate.
func (c *Cart) Hydrate(ctx context.Context) { c.store.Hydrate(ctx) }

// Add inserts a line or, when the product is already in the cart, sums
// the quantities capped at the stock ceiling. It never fails: overflow
// clamps silently.
func (c *Cart) Add(ctx context.Context, item domain.CartItem) {
	if existing, ok := c.store.Get(item.ProductID); ok {
		existing.StockCeiling = item.StockCeiling
		existing.Quantity = existing.MergeQuantity(item.Quantity)
		c.store.Replace(ctx, existing)
		return
	}
	item.Quantity = item.ClampQuantity(item.Quantity)
	if item.Quantity == 0 {
		return
	}
	c.store.Append(ctx, item)
}

// UpdateQuantity sets a line's quantity, clamped to [0, stockCeiling].
// A quantity resolving to zero removes the line; entries are never
// stored at zero.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	item, ok := c.store.Get(productID)
	if !ok {
		return
	}
	q := item.ClampQuantity(quantity)
	if q == 0 {
		c.store.Remove(ctx, productID)
		return
	}
	item.Quantity = q
	c.store.Replace(ctx, item)
}

// Remove deletes a line unconditionally.
func (c *Cart) Remove(ctx context.Context, productID int64) { c.store.Remove(ctx, productID) }

// Clear empties the cart and its persisted snapshot.
func (c *Cart) Clear(ctx context.Context) { c.store.Clear(ctx) }

// Items returns the cart lines in insertion order.
func (c *Cart) Items() []domain.CartItem { return c.store.Entries() }

// Count returns the number of distinct lines.
func (c *Cart) Count() int { return c.store.Count() }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return c.store.IsEmpty() }

// Totals computes the cart's HT/TTC aggregate from the line snapshots.
func (c *Cart) Totals() domain.CartTotals {
	return domain.ComputeCartTotals(c.store.entries)
}

// CheckoutDraft derives the order payload expected by order derivation
// at checkout time.
func (c *Cart) CheckoutDraft(now time.Time) domain.OrderDraft {
	return domain.OrderDraftFromCart(c.store.entries, now)
}
