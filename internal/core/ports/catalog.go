// internal/core/ports/catalog.go
package ports

import (
	"context"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
)

// CatalogRepository is the read-only catalog lookup consumed by the
// commercial core. FindByID returns (nil, nil) for a missing product;
// inactive products are returned as-is and filtered by the caller.
type CatalogRepository interface {
	FindByID(ctx context.Context, productID int64) (*domain.Product, error)
	FindByIDs(ctx context.Context, productIDs []int64) (map[int64]*domain.Product, error)
	List(ctx context.Context, params CatalogListParams) ([]*domain.Product, int64, error)
}

// CatalogListParams filters catalog listings.
type CatalogListParams struct {
	Search     string
	ActiveOnly bool
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// CustomerDirectory resolves the contact summary attached to admin quote
// reads. Account issuance and authentication live outside this core.
type CustomerDirectory interface {
	FindCustomerSummary(ctx context.Context, userID string) (*domain.CustomerSummary, error)
}
