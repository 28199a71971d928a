// internal/handlers/stock.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/services"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
)

// StockHandler handles inventory ledger HTTP requests. All endpoints
// are admin back-office surface.
type StockHandler struct {
	service ports.StockService
	catalog *services.CatalogService
	logger  *slog.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(service ports.StockService, catalog *services.CatalogService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		service: service,
		catalog: catalog,
		logger:  logger.With(slog.String("handler", "stock")),
	}
}

// RecordMovementRequest represents the request body for recording a movement
type RecordMovementRequest struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Type      string `json:"type"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// RecordMovement handles POST /api/v1/admin/stock/movements
func (h *StockHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	var req RecordMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	movement, err := h.service.RecordMovement(ctx, user, ports.RecordMovementInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Type:      domain.MovementType(req.Type),
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "stock movement refused",
			slog.Int64("product_id", req.ProductID),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	// The cached counter changed; drop the catalog cache entry.
	if h.catalog != nil {
		h.catalog.InvalidateProduct(ctx, movement.ProductID)
	}

	respondJSON(w, h.logger, http.StatusCreated, movement)
}

// GetHistory handles GET /api/v1/admin/stock/{id}/movements
func (h *StockHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	movements, err := h.service.History(ctx, user, productID, limit)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"movements":  movements,
		"count":      len(movements),
	})
}

// ListMovements handles GET /api/v1/admin/stock/movements
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	params := ports.MovementListParams{
		MovementType: r.URL.Query().Get("type"),
		SortOrder:    r.URL.Query().Get("order"),
		Limit:        50,
	}
	if pid := r.URL.Query().Get("product_id"); pid != "" {
		if v, err := strconv.ParseInt(pid, 10, 64); err == nil {
			params.ProductID = v
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= 200 {
			params.Limit = v
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil && v >= 0 {
			params.Offset = v
		}
	}

	movements, total, err := h.service.ListAll(ctx, user, params)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"limit":     params.Limit,
		"offset":    params.Offset,
	})
}

// GetLevel handles GET /api/v1/admin/stock/{id}/level. It reports the
// cached counter next to the ledger sum so drift is visible.
func (h *StockHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	level, err := h.service.Level(ctx, user, productID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, level)
}
