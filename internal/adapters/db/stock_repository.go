// internal/adapters/db/stock_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

// stockRepository implements ports.StockRepository
type stockRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewStockRepository creates a new stock ledger repository
func NewStockRepository(db *Database, logger *slog.Logger) ports.StockRepository {
	return &stockRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "stock")),
	}
}

// Append inserts the movement and applies its signed delta to the
// product's cached stock counter in the same transaction.
func (r *stockRepository) Append(ctx context.Context, movement *domain.StockMovement) error {
	movement.PrepareForStorage()

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO stock_movements (
				id, product_id, quantity, movement_type,
				reference, notes, created_by, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		_, err := tx.Exec(ctx, insertQuery,
			movement.ID, movement.ProductID, movement.Quantity, movement.Type,
			movement.Reference, movement.Notes, movement.CreatedBy, movement.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stock movement: %w", err)
		}

		counterQuery := `
			UPDATE products
			SET stock_quantity = stock_quantity + $2, updated_at = $3
			WHERE id = $1`

		tag, err := tx.Exec(ctx, counterQuery,
			movement.ProductID, movement.SignedQuantity(), movement.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update stock counter: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %d: %w", movement.ProductID, domain.ErrNotFound)
		}

		return nil
	})

	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "stock movement recorded",
		slog.String("movement_id", movement.ID.String()),
		slog.Int64("product_id", movement.ProductID),
		slog.String("type", string(movement.Type)),
		slog.Int("delta", movement.SignedQuantity()))

	return nil
}

// History retrieves a product's movements, newest first.
func (r *stockRepository) History(ctx context.Context, productID int64, limit int) ([]*domain.StockMovement, error) {
	query := `
		SELECT id, product_id, quantity, movement_type,
			reference, notes, created_by, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	return scanMovements(rows)
}

// FindAll retrieves movements with filtering and pagination
func (r *stockRepository) FindAll(ctx context.Context, params ports.MovementListParams) ([]*domain.StockMovement, int64, error) {
	filters := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.ProductID > 0 {
			qb = qb.Where(squirrel.Eq{"product_id": params.ProductID})
		}
		if params.MovementType != "" {
			qb = qb.Where(squirrel.Eq{"movement_type": params.MovementType})
		}
		return qb
	}

	countQb := filters(squirrel.Select("COUNT(*)").From("stock_movements").
		PlaceholderFormat(squirrel.Dollar))
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count stock movements: %w", err)
	}

	qb := filters(squirrel.Select(
		"id", "product_id", "quantity", "movement_type",
		"reference", "notes", "created_by", "created_at",
	).From("stock_movements").
		PlaceholderFormat(squirrel.Dollar))

	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	qb = qb.OrderBy(fmt.Sprintf("created_at %s, id %s", sortOrder, sortOrder))

	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}
	if params.Offset > 0 {
		qb = qb.Offset(uint64(params.Offset))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, 0, err
	}

	return movements, totalCount, nil
}

// LedgerBalance sums the signed quantities of every movement for the
// product.
func (r *stockRepository) LedgerBalance(ctx context.Context, productID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN movement_type = 'out' THEN -quantity ELSE quantity END
		), 0)
		FROM stock_movements
		WHERE product_id = $1`

	var balance int
	if err := r.db.QueryRow(ctx, query, productID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to sum ledger balance: %w", err)
	}

	return balance, nil
}

func scanMovements(rows pgx.Rows) ([]*domain.StockMovement, error) {
	movements := []*domain.StockMovement{}
	for rows.Next() {
		m := &domain.StockMovement{}
		err := rows.Scan(
			&m.ID, &m.ProductID, &m.Quantity, &m.Type,
			&m.Reference, &m.Notes, &m.CreatedBy, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock movements: %w", err)
	}
	return movements, nil
}
