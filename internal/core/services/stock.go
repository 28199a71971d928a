// internal/core/services/stock.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

const defaultHistoryLimit = 50

// StockService records movements into the append-only inventory ledger
// and reads them back for the back office.
type StockService struct {
	ledger  ports.StockRepository
	catalog ports.CatalogRepository
	logger  *slog.Logger
}

// Statically assert that *StockService implements the StockService port.
var _ ports.StockService = (*StockService)(nil)

// NewStockService creates an inventory ledger service.
func NewStockService(ledger ports.StockRepository, catalog ports.CatalogRepository, logger *slog.Logger) *StockService {
	return &StockService{
		ledger:  ledger,
		catalog: catalog,
		logger:  logger.With(slog.String("service", "stock")),
	}
}

// RecordMovement appends one immutable movement. The repository applies
// the signed delta to the product's cached counter in the same
// transaction, so the ledger and the counter move together. Admin only.
func (s *StockService) RecordMovement(ctx context.Context, user *domain.User, input ports.RecordMovementInput) (*domain.StockMovement, error) {
	if !user.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	movement := &domain.StockMovement{
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Type:      input.Type,
		Reference: input.Reference,
		Notes:     input.Notes,
		CreatedBy: user.ID,
	}
	if err := movement.Validate(); err != nil {
		return nil, err
	}

	product, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", input.ProductID, domain.ErrNotFound)
	}

	movement.PrepareForStorage()
	if err := s.ledger.Append(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}

	s.logger.InfoContext(ctx, "stock movement recorded",
		slog.String("movement_id", movement.ID.String()),
		slog.Int64("product_id", movement.ProductID),
		slog.String("type", string(movement.Type)),
		slog.Int("signed_quantity", movement.SignedQuantity()))

	return movement, nil
}

// History returns a product's movements, newest first. Admin only.
func (s *StockService) History(ctx context.Context, user *domain.User, productID int64, limit int) ([]*domain.StockMovement, error) {
	if !user.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	movements, err := s.ledger.History(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock history: %w", err)
	}
	return movements, nil
}

// ListAll returns movements across all products with filtering and
// pagination. Admin only.
func (s *StockService) ListAll(ctx context.Context, user *domain.User, params ports.MovementListParams) ([]*domain.StockMovement, int64, error) {
	if !user.IsAdmin() {
		return nil, 0, domain.ErrAccessDenied
	}
	return s.ledger.FindAll(ctx, params)
}

// Level reports a product's cached counter next to the ledger balance,
// flagging drift between the two. Admin only.
func (s *StockService) Level(ctx context.Context, user *domain.User, productID int64) (*ports.StockLevel, error) {
	if !user.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}

	balance, err := s.ledger.LedgerBalance(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}

	return &ports.StockLevel{
		ProductID:     productID,
		StockQuantity: product.StockQuantity,
		LedgerBalance: balance,
		Consistent:    product.StockQuantity == balance,
	}, nil
}
