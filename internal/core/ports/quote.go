// internal/core/ports/quote.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
)

// QuoteRepository is the persistence port for quotes. Save writes the
// header and all line items as one transaction; TransitionStatus is a
// conditional update ("set status where id and status=expected") so
// concurrent transitions cannot both win.
type QuoteRepository interface {
	Save(ctx context.Context, quote *domain.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*domain.Quote, error)
	FindAll(ctx context.Context, params QuoteListParams) ([]*domain.Quote, int64, error)
	// TransitionStatus returns false when zero rows matched, i.e. the
	// quote was not in the expected status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.QuoteStatus) (bool, error)
}

// QuoteListParams filters admin quote listings.
type QuoteListParams struct {
	Status    string
	OwnerID   string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// QuoteLineInput is one requested line of a quote. UnitPriceHT overrides
// the catalog price when set; otherwise the product's current HT price is
// snapshotted.
type QuoteLineInput struct {
	ProductID    int64
	Quantity     int
	UnitPriceHT  *decimal.Decimal
	DiscountRate decimal.Decimal
}

// CreateQuoteInput is the request shape for quote creation.
type CreateQuoteInput struct {
	Items      []QuoteLineInput
	Notes      string
	TaxRate    *decimal.Decimal
	ValidUntil *time.Time
}

// QuoteDetail is a quote plus the owning customer's contact summary,
// attached only for admin reads.
type QuoteDetail struct {
	Quote    *domain.Quote           `json:"quote"`
	Customer *domain.CustomerSummary `json:"customer,omitempty"`
	// Expired reflects the lazy-expiry predicate at read time; the
	// stored status may still say "sent".
	Expired bool `json:"expired"`
}

// QuoteService is the application port for the quote lifecycle.
type QuoteService interface {
	Create(ctx context.Context, user *domain.User, input CreateQuoteInput) (*domain.Quote, error)
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*QuoteDetail, error)
	ListOwn(ctx context.Context, user *domain.User) ([]*domain.Quote, error)
	ListAll(ctx context.Context, user *domain.User, params QuoteListParams) ([]*domain.Quote, int64, error)
	Send(ctx context.Context, user *domain.User, id uuid.UUID) error
	Accept(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.OrderDraft, error)
	Reject(ctx context.Context, user *domain.User, id uuid.UUID) error
}
