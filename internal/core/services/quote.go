// internal/core/services/quote.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

// quoteNumberRetries bounds the regeneration attempts after a
// quote-number unique-index conflict.
const quoteNumberRetries = 3

// QuoteService owns the quote lifecycle: creation with snapshot pricing,
// status transitions and lazy expiry.
type QuoteService struct {
	quotes       ports.QuoteRepository
	catalog      ports.CatalogRepository
	customers    ports.CustomerDirectory
	logger       *slog.Logger
	taxRate      decimal.Decimal
	validityDays int
}

// Statically assert that *QuoteService implements the QuoteService port.
var _ ports.QuoteService = (*QuoteService)(nil)

// NewQuoteService creates a quote lifecycle service. taxRate is the flat
// default VAT percentage; validityDays sizes the default validity window
// when the caller supplies none.
func NewQuoteService(quotes ports.QuoteRepository, catalog ports.CatalogRepository,
	customers ports.CustomerDirectory, taxRate decimal.Decimal, validityDays int,
	logger *slog.Logger) *QuoteService {
	if taxRate.IsZero() {
		taxRate = domain.DefaultTaxRate
	}
	if validityDays <= 0 {
		validityDays = 30
	}
	return &QuoteService{
		quotes:       quotes,
		catalog:      catalog,
		customers:    customers,
		taxRate:      taxRate,
		validityDays: validityDays,
		logger:       logger.With(slog.String("service", "quote")),
	}
}

// Create builds and persists a quote for a validated professional
// customer. Every line is resolved against the live catalog; product
// name, SKU and unit price are snapshotted so the quoted terms survive
// later catalog changes. Header and items are written as one
// transaction.
func (s *QuoteService) Create(ctx context.Context, user *domain.User, input ports.CreateQuoteInput) (*domain.Quote, error) {
	if !user.IsValidatedPro() {
		return nil, fmt.Errorf("quote creation requires a validated professional account: %w", domain.ErrAccessDenied)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: quote requires at least one item", domain.ErrValidation)
	}

	ids := make([]int64, 0, len(input.Items))
	for _, line := range input.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve quote products: %w", err)
	}

	quoteID := uuid.New()
	items := make([]domain.QuoteItem, 0, len(input.Items))
	for _, line := range input.Items {
		product, ok := products[line.ProductID]
		if !ok || !product.Sellable() {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrProductInactive)
		}

		unitPrice := product.PriceHT
		if line.UnitPriceHT != nil {
			unitPrice = *line.UnitPriceHT
		}
		item := domain.QuoteItem{
			ID:           uuid.New(),
			QuoteID:      quoteID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductSKU:   product.SKU,
			Quantity:     line.Quantity,
			UnitPriceHT:  unitPrice,
			DiscountRate: line.DiscountRate,
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	taxRate := s.taxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	totals := domain.ComputeQuoteTotals(items, taxRate)

	now := time.Now()
	validUntil := input.ValidUntil
	if validUntil == nil {
		v := now.AddDate(0, 0, s.validityDays)
		validUntil = &v
	}

	quote := &domain.Quote{
		ID:             quoteID,
		OwnerID:        user.ID,
		Status:         domain.QuoteStatusDraft,
		ValidUntil:     validUntil,
		SubtotalHT:     totals.SubtotalHT,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		TotalHT:        totals.TotalHT,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
		Items:          items,
	}
	if err := quote.Validate(); err != nil {
		return nil, err
	}

	// The random suffix makes collisions unlikely but not impossible;
	// the unique index is authoritative and we retry on conflict.
	for attempt := 0; ; attempt++ {
		quote.QuoteNumber = domain.NewQuoteNumber(now)
		err = s.quotes.Save(ctx, quote)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrQuoteNumberTaken) && attempt < quoteNumberRetries {
			continue
		}
		return nil, fmt.Errorf("failed to save quote: %w", err)
	}

	s.logger.InfoContext(ctx, "quote created",
		slog.String("quote_id", quote.ID.String()),
		slog.String("quote_number", quote.QuoteNumber),
		slog.String("owner_id", quote.OwnerID),
		slog.Int("items", len(quote.Items)))

	return quote, nil
}

// Get returns a quote readable by its owner or by an admin. Admin reads
// attach the owning customer's contact summary. The Expired flag is the
// lazy-expiry predicate evaluated at read time.
func (s *QuoteService) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*ports.QuoteDetail, error) {
	if user == nil {
		return nil, domain.ErrAccessDenied
	}
	quote, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	if quote == nil {
		return nil, fmt.Errorf("quote %s: %w", id, domain.ErrNotFound)
	}
	if !quote.OwnedBy(user.ID) && !user.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	detail := &ports.QuoteDetail{
		Quote: quote,
		Expired: quote.Status == domain.QuoteStatusExpired ||
			(quote.Status == domain.QuoteStatusSent && quote.HasElapsed(time.Now())),
	}

	if user.IsAdmin() {
		customer, err := s.customers.FindCustomerSummary(ctx, quote.OwnerID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to load customer summary",
				slog.String("quote_id", id.String()),
				slog.String("error", err.Error()))
		} else {
			detail.Customer = customer
		}
	}

	return detail, nil
}

// ListOwn returns the caller's quotes, newest first.
func (s *QuoteService) ListOwn(ctx context.Context, user *domain.User) ([]*domain.Quote, error) {
	if user == nil {
		return nil, domain.ErrAccessDenied
	}
	quotes, err := s.quotes.FindByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

// ListAll returns every quote with filtering and pagination. Admin only.
func (s *QuoteService) ListAll(ctx context.Context, user *domain.User, params ports.QuoteListParams) ([]*domain.Quote, int64, error) {
	if !user.IsAdmin() {
		return nil, 0, domain.ErrAccessDenied
	}
	return s.quotes.FindAll(ctx, params)
}

// Send transitions a draft quote to sent. Admin only; the transition is
// a conditional update so a double send cannot both win.
func (s *QuoteService) Send(ctx context.Context, user *domain.User, id uuid.UUID) error {
	if !user.IsAdmin() {
		return domain.ErrAccessDenied
	}
	ok, err := s.quotes.TransitionStatus(ctx, id, domain.QuoteStatusDraft, domain.QuoteStatusSent)
	if err != nil {
		return fmt.Errorf("failed to send quote: %w", err)
	}
	if !ok {
		return fmt.Errorf("quote %s is not in draft: %w", id, domain.ErrInvalidTransition)
	}
	s.logger.InfoContext(ctx, "quote sent", slog.String("quote_id", id.String()))
	return nil
}

// Accept transitions a sent quote to accepted and returns the order
// derivation payload. An accept attempted after the validity window has
// elapsed moves the quote to expired as a side effect and fails. Both
// transitions are conditional updates, so exactly one of a pair of
// concurrent accept/reject/expire attempts wins.
func (s *QuoteService) Accept(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.OrderDraft, error) {
	quote, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusSent {
		return nil, fmt.Errorf("cannot accept a %s quote: %w", quote.Status, domain.ErrInvalidTransition)
	}

	now := time.Now()
	if quote.HasElapsed(now) {
		// Lazy expiry: flip the stored status as a byproduct of this
		// failed accept. Losing the conditional update just means
		// another caller expired it first.
		if _, err := s.quotes.TransitionStatus(ctx, id, domain.QuoteStatusSent, domain.QuoteStatusExpired); err != nil {
			s.logger.WarnContext(ctx, "failed to expire quote",
				slog.String("quote_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("quote %s: %w", quote.QuoteNumber, domain.ErrQuoteExpired)
	}

	ok, err := s.quotes.TransitionStatus(ctx, id, domain.QuoteStatusSent, domain.QuoteStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to accept quote: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("quote %s is no longer acceptable: %w", id, domain.ErrInvalidTransition)
	}

	quote.Status = domain.QuoteStatusAccepted
	draft := domain.OrderDraftFromQuote(quote, now)

	s.logger.InfoContext(ctx, "quote accepted",
		slog.String("quote_id", id.String()),
		slog.String("quote_number", quote.QuoteNumber))

	return &draft, nil
}

// Reject transitions a sent quote to rejected. Only the owner may
// reject, and only from sent; terminal states stay untouched.
func (s *QuoteService) Reject(ctx context.Context, user *domain.User, id uuid.UUID) error {
	quote, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return err
	}
	if quote.Status != domain.QuoteStatusSent {
		return fmt.Errorf("cannot reject a %s quote: %w", quote.Status, domain.ErrInvalidTransition)
	}

	ok, err := s.quotes.TransitionStatus(ctx, id, domain.QuoteStatusSent, domain.QuoteStatusRejected)
	if err != nil {
		return fmt.Errorf("failed to reject quote: %w", err)
	}
	if !ok {
		return fmt.Errorf("quote %s is no longer rejectable: %w", id, domain.ErrInvalidTransition)
	}

	s.logger.InfoContext(ctx, "quote rejected",
		slog.String("quote_id", id.String()),
		slog.String("quote_number", quote.QuoteNumber))

	return nil
}

// loadOwned fetches a quote and enforces that the caller owns it.
func (s *QuoteService) loadOwned(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Quote, error) {
	if user == nil {
		return nil, domain.ErrAccessDenied
	}
	quote, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	if quote == nil {
		return nil, fmt.Errorf("quote %s: %w", id, domain.ErrNotFound)
	}
	if !quote.OwnedBy(user.ID) {
		return nil, domain.ErrAccessDenied
	}
	return quote, nil
}
