// internal/handlers/compare.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/collection"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/services"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
)

// CompareHandler handles the session product comparator endpoints
type CompareHandler struct {
	catalog    *services.CatalogService
	kv         ports.KeyValueStore
	capacity   int
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewCompareHandler creates a new comparator handler
func NewCompareHandler(catalog *services.CatalogService, kv ports.KeyValueStore, capacity int, sessionTTL time.Duration, logger *slog.Logger) *CompareHandler {
	if capacity <= 0 {
		capacity = collection.DefaultCompareCapacity
	}
	return &CompareHandler{
		catalog:    catalog,
		kv:         kv,
		capacity:   capacity,
		sessionTTL: sessionTTL,
		logger:     logger.With(slog.String("handler", "compare")),
	}
}

// CompareResponse is the comparison view returned to the storefront
type CompareResponse struct {
	Items    []domain.ComparisonItem `json:"items"`
	Capacity int                     `json:"capacity"`
	Full     bool                    `json:"full"`
	// Added reports the outcome of an add or toggle: whether the
	// product is in the comparison after the call.
	Added *bool `json:"added,omitempty"`
}

// CompareItemRequest represents the request body for add and toggle
type CompareItemRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *CompareHandler) comparator(r *http.Request) *collection.Comparator {
	sessionID := middleware.SessionFromContext(r.Context())
	cmp := collection.NewComparator(sessionID, h.capacity, h.sessionTTL, h.kv, h.logger)
	cmp.Hydrate(r.Context())
	return cmp
}

// GetComparison handles GET /api/v1/compare
func (h *CompareHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	h.respondComparison(w, h.comparator(r), nil)
}

// AddItem handles POST /api/v1/compare/items
func (h *CompareHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}

	cmp := h.comparator(r)
	added := cmp.Add(r.Context(), item)

	h.respondComparison(w, cmp, &added)
}

// ToggleItem handles POST /api/v1/compare/toggle
func (h *CompareHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.resolveItem(w, r)
	if !ok {
		return
	}

	cmp := h.comparator(r)
	present := cmp.Toggle(r.Context(), item)

	h.respondComparison(w, cmp, &present)
}

// RemoveItem handles DELETE /api/v1/compare/items/{id}
func (h *CompareHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	cmp := h.comparator(r)
	cmp.Remove(r.Context(), productID)

	h.respondComparison(w, cmp, nil)
}

// ClearComparison handles DELETE /api/v1/compare
func (h *CompareHandler) ClearComparison(w http.ResponseWriter, r *http.Request) {
	cmp := h.comparator(r)
	cmp.Clear(r.Context())

	h.respondComparison(w, cmp, nil)
}

func (h *CompareHandler) resolveItem(w http.ResponseWriter, r *http.Request) (domain.ComparisonItem, bool) {
	ctx := r.Context()

	var req CompareItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return domain.ComparisonItem{}, false
	}
	if req.ProductID <= 0 {
		respondError(w, h.logger, http.StatusBadRequest, "product_id is required")
		return domain.ComparisonItem{}, false
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve product",
			slog.Int64("product_id", req.ProductID),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to resolve product")
		return domain.ComparisonItem{}, false
	}
	if !product.Sellable() {
		respondError(w, h.logger, http.StatusNotFound, "Product not available")
		return domain.ComparisonItem{}, false
	}

	return domain.ComparisonItemFromProduct(product), true
}

func (h *CompareHandler) respondComparison(w http.ResponseWriter, cmp *collection.Comparator, added *bool) {
	respondJSON(w, h.logger, http.StatusOK, CompareResponse{
		Items:    cmp.Items(),
		Capacity: h.capacity,
		Full:     cmp.IsFull(),
		Added:    added,
	})
}
