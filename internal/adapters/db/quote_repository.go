// internal/adapters/db/quote_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

const uniqueViolationCode = "23505"

// quoteRepository implements ports.QuoteRepository
type quoteRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *Database, logger *slog.Logger) ports.QuoteRepository {
	return &quoteRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "quote")),
	}
}

// Save writes the quote header and all line items in one transaction.
// A unique-index conflict on quote_number surfaces as
// domain.ErrQuoteNumberTaken so the caller can regenerate and retry.
func (r *quoteRepository) Save(ctx context.Context, quote *domain.Quote) error {
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	now := time.Now()
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = now
	}
	quote.UpdatedAt = now

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		headerQuery := `
			INSERT INTO quotes (
				id, owner_id, quote_number, status, valid_until,
				subtotal_ht, discount_amount, tax_amount, total_ht,
				notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

		_, err := tx.Exec(ctx, headerQuery,
			quote.ID, quote.OwnerID, quote.QuoteNumber, quote.Status, quote.ValidUntil,
			quote.SubtotalHT, quote.DiscountAmount, quote.TaxAmount, quote.TotalHT,
			quote.Notes, quote.CreatedAt, quote.UpdatedAt,
		)
		if err != nil {
			return err
		}

		itemQuery := `
			INSERT INTO quote_items (
				id, quote_id, product_id, product_name, product_sku,
				quantity, unit_price_ht, discount_rate
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		batch := &pgx.Batch{}
		for i := range quote.Items {
			item := &quote.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.QuoteID = quote.ID

			batch.Queue(itemQuery,
				item.ID, item.QuoteID, item.ProductID, item.ProductName, item.ProductSKU,
				item.Quantity, item.UnitPriceHT, item.DiscountRate,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range quote.Items {
			if _, err := results.Exec(); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == "quotes_quote_number_key" {
			return domain.ErrQuoteNumberTaken
		}
		return fmt.Errorf("failed to save quote: %w", err)
	}

	r.logger.DebugContext(ctx, "quote saved",
		slog.String("quote_id", quote.ID.String()),
		slog.String("quote_number", quote.QuoteNumber),
		slog.Int("items", len(quote.Items)))

	return nil
}

// FindByID retrieves a quote with its line items
func (r *quoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	query := `
		SELECT id, owner_id, quote_number, status, valid_until,
			subtotal_ht, discount_amount, tax_amount, total_ht,
			notes, created_at, updated_at
		FROM quotes
		WHERE id = $1`

	quote, err := scanQuote(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quote: %w", err)
	}

	items, err := r.findItems(ctx, quote.ID)
	if err != nil {
		return nil, err
	}
	quote.Items = items

	return quote, nil
}

// FindByOwner retrieves all quotes owned by a user, newest first,
// including line items.
func (r *quoteRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Quote, error) {
	query := `
		SELECT id, owner_id, quote_number, status, valid_until,
			subtotal_ht, discount_amount, tax_amount, total_ht,
			notes, created_at, updated_at
		FROM quotes
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, err
	}

	for _, q := range quotes {
		items, err := r.findItems(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		q.Items = items
	}

	return quotes, nil
}

// FindAll retrieves quotes with filtering and pagination. Line items are
// not loaded for listings.
func (r *quoteRepository) FindAll(ctx context.Context, params ports.QuoteListParams) ([]*domain.Quote, int64, error) {
	filters := func(qb squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.Status != "" {
			qb = qb.Where(squirrel.Eq{"status": params.Status})
		}
		if params.OwnerID != "" {
			qb = qb.Where(squirrel.Eq{"owner_id": params.OwnerID})
		}
		return qb
	}

	countQb := filters(squirrel.Select("COUNT(*)").From("quotes").
		PlaceholderFormat(squirrel.Dollar))
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	qb := filters(squirrel.Select(
		"id", "owner_id", "quote_number", "status", "valid_until",
		"subtotal_ht", "discount_amount", "tax_amount", "total_ht",
		"notes", "created_at", "updated_at",
	).From("quotes").
		PlaceholderFormat(squirrel.Dollar))

	sortBy := params.SortBy
	switch sortBy {
	case "quote_number", "status", "total_ht", "valid_until", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
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
		return nil, 0, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, 0, err
	}

	return quotes, totalCount, nil
}

// TransitionStatus performs a compare-and-set status update. It returns
// false when the quote was not in the expected status (or does not
// exist), without error.
func (r *quoteRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.QuoteStatus) (bool, error) {
	query := `
		UPDATE quotes
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, id, from, to, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to transition quote status: %w", err)
	}

	transitioned := tag.RowsAffected() > 0
	if transitioned {
		r.logger.InfoContext(ctx, "quote status transitioned",
			slog.String("quote_id", id.String()),
			slog.String("from", string(from)),
			slog.String("to", string(to)))
	}

	return transitioned, nil
}

func (r *quoteRepository) findItems(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error) {
	query := `
		SELECT id, quote_id, product_id, product_name, product_sku,
			quantity, unit_price_ht, discount_rate
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY product_name ASC`

	rows, err := r.db.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote items: %w", err)
	}
	defer rows.Close()

	var items []domain.QuoteItem
	for rows.Next() {
		var item domain.QuoteItem
		err := rows.Scan(
			&item.ID, &item.QuoteID, &item.ProductID, &item.ProductName, &item.ProductSKU,
			&item.Quantity, &item.UnitPriceHT, &item.DiscountRate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quote items: %w", err)
	}

	return items, nil
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	quote := &domain.Quote{}
	var notes *string
	err := row.Scan(
		&quote.ID, &quote.OwnerID, &quote.QuoteNumber, &quote.Status, &quote.ValidUntil,
		&quote.SubtotalHT, &quote.DiscountAmount, &quote.TaxAmount, &quote.TotalHT,
		&notes, &quote.CreatedAt, &quote.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		quote.Notes = *notes
	}
	return quote, nil
}

func scanQuotes(rows pgx.Rows) ([]*domain.Quote, error) {
	quotes := []*domain.Quote{}
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}
	return quotes, nil
}
