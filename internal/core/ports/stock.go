// internal/core/ports/stock.go
package ports

import (
	"context"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
)

// StockRepository is the persistence port for the inventory ledger.
// Append writes the movement and applies its signed delta to the
// product's cached stock counter inside a single transaction, so the
// ledger and the counter cannot drift through this path.
type StockRepository interface {
	Append(ctx context.Context, movement *domain.StockMovement) error
	History(ctx context.Context, productID int64, limit int) ([]*domain.StockMovement, error)
	FindAll(ctx context.Context, params MovementListParams) ([]*domain.StockMovement, int64, error)
	// LedgerBalance sums the signed quantities of every movement for the
	// product. The product's cached counter should equal it in principle.
	LedgerBalance(ctx context.Context, productID int64) (int, error)
}

// MovementListParams filters ledger listings.
type MovementListParams struct {
	ProductID    int64
	MovementType string
	SortOrder    string
	Limit        int
	Offset       int
}

// RecordMovementInput is the request shape for recording a movement.
type RecordMovementInput struct {
	ProductID int64
	Quantity  int
	Type      domain.MovementType
	Reference string
	Notes     string
}

// StockLevel reports a product's cached counter next to the ledger sum.
type StockLevel struct {
	ProductID     int64 `json:"product_id"`
	StockQuantity int   `json:"stock_quantity"`
	LedgerBalance int   `json:"ledger_balance"`
	Consistent    bool  `json:"consistent"`
}

// StockService is the application port for the inventory ledger.
type StockService interface {
	RecordMovement(ctx context.Context, user *domain.User, input RecordMovementInput) (*domain.StockMovement, error)
	History(ctx context.Context, user *domain.User, productID int64, limit int) ([]*domain.StockMovement, error)
	ListAll(ctx context.Context, user *domain.User, params MovementListParams) ([]*domain.StockMovement, int64, error)
	Level(ctx context.Context, user *domain.User, productID int64) (*StockLevel, error)
}
