// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

const productColumns = `id, name, sku, description, price_ht, price_ttc, tax_rate,
	stock_quantity, is_active, created_at, updated_at`

// catalogRepository implements ports.CatalogRepository and
// ports.CustomerDirectory over the shared storefront schema.
type catalogRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *Database, logger *slog.Logger) *catalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "catalog")),
	}
}

var _ ports.CatalogRepository = (*catalogRepository)(nil)
var _ ports.CustomerDirectory = (*catalogRepository)(nil)

// FindByID retrieves a product by id, returning (nil, nil) when missing.
func (r *catalogRepository) FindByID(ctx context.Context, productID int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// FindByIDs retrieves the given products keyed by id. Missing ids are
// simply absent from the map.
func (r *catalogRepository) FindByIDs(ctx context.Context, productIDs []int64) (map[int64]*domain.Product, error) {
	result := make(map[int64]*domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)

	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return result, nil
}

// List retrieves products with filtering and pagination
func (r *catalogRepository) List(ctx context.Context, params ports.CatalogListParams) ([]*domain.Product, int64, error) {
	filters := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.Search != "" {
			pattern := "%" + params.Search + "%"
			qb = qb.Where(squirrel.Or{
				squirrel.ILike{"name": pattern},
				squirrel.ILike{"sku": pattern},
			})
		}
		if params.ActiveOnly {
			qb = qb.Where(squirrel.Eq{"is_active": true})
		}
		return qb
	}

	countQb := filters(squirrel.Select("COUNT(*)").From("products").
		PlaceholderFormat(squirrel.Dollar))
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	qb := filters(squirrel.Select(
		"id", "name", "sku", "description", "price_ht", "price_ttc", "tax_rate",
		"stock_quantity", "is_active", "created_at", "updated_at",
	).From("products").
		PlaceholderFormat(squirrel.Dollar))

	sortBy := params.SortBy
	switch sortBy {
	case "name", "sku", "price_ht", "stock_quantity", "created_at":
	default:
		sortBy = "name"
	}
	sortOrder := "ASC"
	if params.SortOrder == "desc" {
		sortOrder = "DESC"
	}
	qb = qb.OrderBy(fmt.Sprintf("%s %s", sortBy, sortOrder))

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
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, totalCount, nil
}

// FindCustomerSummary resolves the contact summary for a user id,
// returning (nil, nil) when the account is unknown.
func (r *catalogRepository) FindCustomerSummary(ctx context.Context, userID string) (*domain.CustomerSummary, error) {
	query := `
		SELECT id, email, first_name, last_name,
			COALESCE(company_name, ''), COALESCE(phone, '')
		FROM users
		WHERE id = $1`

	summary := &domain.CustomerSummary{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&summary.ID, &summary.Email, &summary.FirstName, &summary.LastName,
		&summary.CompanyName, &summary.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find customer summary: %w", err)
	}

	return summary, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	product := &domain.Product{}
	var description *string
	err := row.Scan(
		&product.ID, &product.Name, &product.SKU, &description,
		&product.PriceHT, &product.PriceTTC, &product.TaxRate,
		&product.StockQuantity, &product.IsActive,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description != nil {
		product.Description = *description
	}
	return product, nil
}
