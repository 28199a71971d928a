// internal/handlers/catalog.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/services"
)

// CatalogHandler serves public catalog reads
type CatalogHandler struct {
	service *services.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *services.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "catalog")),
	}
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.service.GetProduct(ctx, productID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get product",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	if product == nil || !product.IsActive {
		respondError(w, h.logger, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, product)
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.CatalogListParams{
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: true,
		SortBy:     r.URL.Query().Get("sort"),
		SortOrder:  r.URL.Query().Get("order"),
		Limit:      50,
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

	products, total, err := h.service.ListProducts(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"limit":    params.Limit,
		"offset":   params.Offset,
	})
}
