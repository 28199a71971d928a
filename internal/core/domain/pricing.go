// internal/core/domain/pricing.go
package domain

import "github.com/shopspring/decimal"

// DefaultTaxRate is the flat VAT percentage applied to quotes when the
// caller supplies no custom rate.
var DefaultTaxRate = decimal.NewFromInt(20)

var hundred = decimal.NewFromInt(100)

// CartTotals aggregates cart lines using their per-item HT/TTC snapshots.
// Tax is derived as the TTC/HT difference, so carts whose items carry
// different tax rates still sum correctly.
type CartTotals struct {
	SubtotalHT decimal.Decimal `json:"subtotal_ht"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	TotalTTC   decimal.Decimal `json:"total_ttc"`
	ItemCount  int             `json:"item_count"`
}

// ComputeCartTotals sums line totals without intermediate rounding.
func ComputeCartTotals(items []CartItem) CartTotals {
	t := CartTotals{
		SubtotalHT: decimal.Zero,
		TaxAmount:  decimal.Zero,
		TotalTTC:   decimal.Zero,
	}
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		t.SubtotalHT = t.SubtotalHT.Add(item.PriceHT.Mul(qty))
		t.TotalTTC = t.TotalTTC.Add(item.PriceTTC.Mul(qty))
		t.ItemCount += item.Quantity
	}
	t.TaxAmount = t.TotalTTC.Sub(t.SubtotalHT)
	return t
}

// QuoteTotals holds the computed monetary summary of a quote. TotalHT is
// the discounted pre-tax subtotal; tax is reported separately and never
// folded into TotalHT.
type QuoteTotals struct {
	SubtotalHT     decimal.Decimal `json:"subtotal_ht"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalHT        decimal.Decimal `json:"total_ht"`
	TotalTTC       decimal.Decimal `json:"total_ttc"`
}

// ComputeQuoteTotals sums discounted line totals and applies a single
// flat tax rate to the whole subtotal (quotes do not support per-line
// tax rates, unlike the cart).
func ComputeQuoteTotals(items []QuoteItem, taxRate decimal.Decimal) QuoteTotals {
	gross := decimal.Zero
	subtotal := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		lineGross := item.UnitPriceHT.Mul(qty)
		gross = gross.Add(lineGross)
		subtotal = subtotal.Add(item.LineTotalHT())
	}

	tax := subtotal.Mul(taxRate).Div(hundred)
	return QuoteTotals{
		SubtotalHT:     subtotal,
		DiscountAmount: gross.Sub(subtotal),
		TaxAmount:      tax,
		TotalHT:        subtotal,
		TotalTTC:       subtotal.Add(tax),
	}
}

// RoundMoney rounds a monetary value to 2 fraction digits for display.
// Internal accumulation stays unrounded; only formatted output rounds.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
