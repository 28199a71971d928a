// internal/core/domain/order.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order derivation is handled outside this core. The types below are the
// boundary contract: the exact shape an order constructor expects from an
// accepted quote or a checkout cart.

// OrderLine is one line of an order draft.
type OrderLine struct {
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPriceHT decimal.Decimal `json:"unit_price_ht"`
}

// OrderDraft is the payload handed to order derivation.
type OrderDraft struct {
	Source      string          `json:"source"` // "quote" or "cart"
	QuoteID     string          `json:"quote_id,omitempty"`
	QuoteNumber string          `json:"quote_number,omitempty"`
	CustomerID  string          `json:"customer_id,omitempty"`
	Lines       []OrderLine     `json:"lines"`
	TotalHT     decimal.Decimal `json:"total_ht"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderDraftFromQuote derives the order payload from an accepted quote.
func OrderDraftFromQuote(q *Quote, now time.Time) OrderDraft {
	lines := make([]OrderLine, 0, len(q.Items))
	for _, item := range q.Items {
		lines = append(lines, OrderLine{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPriceHT: item.UnitPriceHT,
		})
	}
	return OrderDraft{
		Source:      "quote",
		QuoteID:     q.ID.String(),
		QuoteNumber: q.QuoteNumber,
		CustomerID:  q.OwnerID,
		Lines:       lines,
		TotalHT:     q.TotalHT,
		TaxAmount:   q.TaxAmount,
		CreatedAt:   now,
	}
}

// OrderDraftFromCart derives the checkout payload from a cart snapshot.
func OrderDraftFromCart(items []CartItem, now time.Time) OrderDraft {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPriceHT: item.PriceHT,
		})
	}
	totals := ComputeCartTotals(items)
	return OrderDraft{
		Source:    "cart",
		Lines:     lines,
		TotalHT:   totals.SubtotalHT,
		TaxAmount: totals.TaxAmount,
		CreatedAt: now,
	}
}
