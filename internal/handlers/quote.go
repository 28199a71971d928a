// internal/handlers/quote.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
)

// QuoteHandler handles quote lifecycle HTTP requests
type QuoteHandler struct {
	service ports.QuoteService
	logger  *slog.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(service ports.QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "quote")),
	}
}

// CreateQuoteRequest represents the request body for creating a quote
type CreateQuoteRequest struct {
	Items      []QuoteLineRequest `json:"items"`
	Notes      string             `json:"notes,omitempty"`
	TaxRate    *decimal.Decimal   `json:"tax_rate,omitempty"`
	ValidUntil *time.Time         `json:"valid_until,omitempty"`
}

// QuoteLineRequest is one requested quote line
type QuoteLineRequest struct {
	ProductID    int64            `json:"product_id"`
	Quantity     int              `json:"quantity"`
	UnitPriceHT  *decimal.Decimal `json:"unit_price_ht,omitempty"`
	DiscountRate decimal.Decimal  `json:"discount_rate"`
}

// CreateQuote handles POST /api/v1/quotes
func (h *QuoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	var req CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := ports.CreateQuoteInput{
		Notes:      req.Notes,
		TaxRate:    req.TaxRate,
		ValidUntil: req.ValidUntil,
	}
	for _, line := range req.Items {
		input.Items = append(input.Items, ports.QuoteLineInput{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			UnitPriceHT:  line.UnitPriceHT,
			DiscountRate: line.DiscountRate,
		})
	}

	quote, err := h.service.Create(ctx, user, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create quote",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "quote created",
		slog.String("quote_id", quote.ID.String()),
		slog.String("quote_number", quote.QuoteNumber))

	respondJSON(w, h.logger, http.StatusCreated, quote)
}

// GetQuote handles GET /api/v1/quotes/{id}
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	detail, err := h.service.Get(ctx, user, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, detail)
}

// ListQuotes handles GET /api/v1/quotes — the caller's own quote book
func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	quotes, err := h.service.ListOwn(ctx, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list quotes",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"count":  len(quotes),
	})
}

// ListAllQuotes handles GET /api/v1/admin/quotes
func (h *QuoteHandler) ListAllQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	params := ports.QuoteListParams{
		Status:    r.URL.Query().Get("status"),
		OwnerID:   r.URL.Query().Get("owner_id"),
		SortBy:    r.URL.Query().Get("sort"),
		SortOrder: r.URL.Query().Get("order"),
		Limit:     50,
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 && l <= 200 {
			params.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil && o >= 0 {
			params.Offset = o
		}
	}

	quotes, total, err := h.service.ListAll(ctx, user, params)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

// SendQuote handles POST /api/v1/admin/quotes/{id}/send
func (h *QuoteHandler) SendQuote(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "send", h.service.Send)
}

// RejectQuote handles POST /api/v1/quotes/{id}/reject
func (h *QuoteHandler) RejectQuote(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject", h.service.Reject)
}

// AcceptQuote handles POST /api/v1/quotes/{id}/accept. On success the
// response carries the order draft handed to order processing.
func (h *QuoteHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	draft, err := h.service.Accept(ctx, user, id)
	if err != nil {
		h.logger.WarnContext(ctx, "quote acceptance refused",
			slog.String("quote_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "quote accepted",
		slog.String("quote_id", id.String()),
		slog.String("quote_number", draft.QuoteNumber))

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":     "Quote accepted",
		"order_draft": draft,
	})
}

func (h *QuoteHandler) transition(w http.ResponseWriter, r *http.Request, action string,
	fn func(ctx context.Context, user *domain.User, id uuid.UUID) error) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	if err := fn(ctx, user, id); err != nil {
		h.logger.WarnContext(ctx, "quote transition refused",
			slog.String("quote_id", id.String()),
			slog.String("action", action),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "quote transitioned",
		slog.String("quote_id", id.String()),
		slog.String("action", action))

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Quote " + action + " applied",
	})
}
