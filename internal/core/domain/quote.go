// internal/core/domain/quote.go
package domain

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the lifecycle state of a commercial quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// Terminal reports whether the status admits no further transition.
func (s QuoteStatus) Terminal() bool {
	switch s {
	case QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// QuoteItem is a quote line. Product name, SKU and unit price are
// snapshotted at creation time and never re-derived from the catalog, so
// the quoted terms stay stable if the product is later renamed or
// re-priced.
type QuoteItem struct {
	ID           uuid.UUID       `json:"id"`
	QuoteID      uuid.UUID       `json:"quote_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	Quantity     int             `json:"quantity"`
	UnitPriceHT  decimal.Decimal `json:"unit_price_ht"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
}

// LineTotalHT returns unitPriceHT × quantity × (1 − discountRate/100),
// unrounded.
func (i QuoteItem) LineTotalHT() decimal.Decimal {
	qty := decimal.NewFromInt(int64(i.Quantity))
	factor := decimal.NewFromInt(1).Sub(i.DiscountRate.Div(hundred))
	return i.UnitPriceHT.Mul(qty).Mul(factor)
}

// Validate checks the line invariants before persistence.
func (i *QuoteItem) Validate() error {
	if i.ProductID <= 0 {
		return fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if i.UnitPriceHT.IsNegative() {
		return fmt.Errorf("%w: unit_price_ht cannot be negative", ErrValidation)
	}
	if i.DiscountRate.IsNegative() || i.DiscountRate.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount_rate must be between 0 and 100", ErrValidation)
	}
	return nil
}

// Quote is a priced, time-bounded commercial offer issued to a validated
// professional customer. Quotes are never deleted, only transitioned.
type Quote struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        string          `json:"owner_id"`
	QuoteNumber    string          `json:"quote_number"`
	Status         QuoteStatus     `json:"status"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty"`
	SubtotalHT     decimal.Decimal `json:"subtotal_ht"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalHT        decimal.Decimal `json:"total_ht"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []QuoteItem     `json:"items"`
}

// HasElapsed reports whether the validity window has passed. A nil
// ValidUntil means the quote never expires.
func (q *Quote) HasElapsed(now time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(now)
}

// IsCurrentlyValid is the derived acceptability predicate. Expiry is
// evaluated lazily, so a stored status of "sent" may coexist with an
// elapsed validity window; readers must use this predicate rather than
// the raw status.
func (q *Quote) IsCurrentlyValid(now time.Time) bool {
	return q.Status == QuoteStatusSent && !q.HasElapsed(now)
}

// OwnedBy reports whether the given user id owns the quote.
func (q *Quote) OwnedBy(userID string) bool {
	return q.OwnerID == userID
}

// Validate checks the quote header and all lines.
func (q *Quote) Validate() error {
	if q.OwnerID == "" {
		return fmt.Errorf("%w: owner_id is required", ErrValidation)
	}
	if len(q.Items) == 0 {
		return fmt.Errorf("%w: quote requires at least one item", ErrValidation)
	}
	for idx := range q.Items {
		if err := q.Items[idx].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
	}
	return nil
}

const quoteNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewQuoteNumber builds a human-readable reference of the form
// DEV<YY><MM>-<6 random base36 chars>. Uniqueness is probabilistic; the
// repository enforces it with a unique index and the service retries on
// conflict.
func NewQuoteNumber(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a time-derived suffix just in case.
		for i := range buf {
			buf[i] = byte(now.UnixNano() >> (i * 8))
		}
	}
	suffix := make([]byte, 6)
	for i, b := range buf {
		suffix[i] = quoteNumberAlphabet[int(b)%len(quoteNumberAlphabet)]
	}
	return fmt.Sprintf("DEV%02d%02d-%s", now.Year()%100, int(now.Month()), suffix)
}
