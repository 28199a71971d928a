// internal/core/domain/cart.go
package domain

import (
	"github.com/shopspring/decimal"
)

// CartItem is a cart line. Unit prices are snapshots taken when the item
// was added; StockCeiling is the product's stock level at the same moment
// and caps the requested quantity.
type CartItem struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	PriceHT      decimal.Decimal `json:"price_ht"`
	PriceTTC     decimal.Decimal `json:"price_ttc"`
	Quantity     int             `json:"quantity"`
	StockCeiling int             `json:"stock_ceiling"`
}

// Key returns the stable identifier used for de-duplication in a
// persisted collection.
func (i CartItem) Key() int64 { return i.ProductID }

// ClampQuantity returns q forced into [0, StockCeiling]. Zero means the
// entry must be removed rather than stored.
func (i CartItem) ClampQuantity(q int) int {
	if q < 0 {
		return 0
	}
	if i.StockCeiling > 0 && q > i.StockCeiling {
		return i.StockCeiling
	}
	return q
}

// MergeQuantity returns the quantity after adding more units of an item
// already in the cart: the sum, silently capped at the stock ceiling.
func (i CartItem) MergeQuantity(added int) int {
	return i.ClampQuantity(i.Quantity + added)
}

// ComparisonItem is an entry of the product comparator. The comparator
// holds snapshots too so a comparison stays coherent while browsing.
type ComparisonItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	PriceHT   decimal.Decimal `json:"price_ht"`
	PriceTTC  decimal.Decimal `json:"price_ttc"`
}

// Key returns the stable identifier used for de-duplication.
func (i ComparisonItem) Key() int64 { return i.ProductID }

// CartItemFromProduct builds a cart line from a live catalog product,
// snapshotting its prices and stock level.
func CartItemFromProduct(p *Product, quantity int) CartItem {
	if quantity < 1 {
		quantity = 1
	}
	item := CartItem{
		ProductID:    p.ID,
		Name:         p.Name,
		PriceHT:      p.PriceHT,
		PriceTTC:     p.PriceTTC,
		StockCeiling: p.StockQuantity,
	}
	item.Quantity = item.ClampQuantity(quantity)
	return item
}

// ComparisonItemFromProduct builds a comparator entry from a catalog
// product.
func ComparisonItemFromProduct(p *Product) ComparisonItem {
	return ComparisonItem{
		ProductID: p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		PriceHT:   p.PriceHT,
		PriceTTC:  p.PriceTTC,
	}
}
