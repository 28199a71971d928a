// internal/core/domain/product.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as the commercial core sees it. Pricing is
// carried both pre-tax (HT) and tax-included (TTC); StockQuantity is the
// cached counter maintained alongside the stock ledger.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Description   string          `json:"description,omitempty"`
	PriceHT       decimal.Decimal `json:"price_ht"`
	PriceTTC      decimal.Decimal `json:"price_ttc"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Sellable reports whether the product can be quoted or added to a cart.
func (p *Product) Sellable() bool {
	return p != nil && p.IsActive
}

// User is the authenticated principal consumed from the identity provider.
// Tokens are issued elsewhere; this core only reads the claims.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	IsValidated bool   `json:"is_validated"`
}

// Roles recognized by the commercial core.
const (
	RoleCustomer = "customer"
	RolePro      = "pro"
	RoleAdmin    = "admin"
)

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsValidatedPro reports whether the user is a professional account that
// an administrator has approved. Quote creation is gated on this.
func (u *User) IsValidatedPro() bool {
	return u != nil && u.Role == RolePro && u.IsValidated
}

// CustomerSummary is the contact view attached to admin quote reads.
type CustomerSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
}
