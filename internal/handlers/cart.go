// internal/handlers/cart.go
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

// CartHandler handles the session shopping cart endpoints
type CartHandler struct {
	catalog    *services.CatalogService
	kv         ports.KeyValueStore
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(catalog *services.CatalogService, kv ports.KeyValueStore, sessionTTL time.Duration, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		catalog:    catalog,
		kv:         kv,
		sessionTTL: sessionTTL,
		logger:     logger.With(slog.String("handler", "cart")),
	}
}

// CartResponse is the cart view returned to the storefront
type CartResponse struct {
	Items  []domain.CartItem `json:"items"`
	Totals domain.CartTotals `json:"totals"`
}

// AddCartItemRequest represents the request body for adding to the cart
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// UpdateCartItemRequest represents the request body for a quantity change
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) cart(r *http.Request) *collection.Cart {
	sessionID := middleware.SessionFromContext(r.Context())
	cart := collection.NewCart(sessionID, h.sessionTTL, h.kv, h.logger)
	cart.Hydrate(r.Context())
	return cart
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	h.respondCart(w, cart)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, h.logger, http.StatusBadRequest, "product_id is required")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve product",
			slog.Int64("product_id", req.ProductID),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to resolve product")
		return
	}
	if !product.Sellable() {
		respondError(w, h.logger, http.StatusNotFound, "Product not available")
		return
	}

	cart := h.cart(r)
	cart.Add(ctx, domain.CartItemFromProduct(product, req.Quantity))

	h.respondCart(w, cart)
}

// UpdateItem handles PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart := h.cart(r)
	cart.UpdateQuantity(r.Context(), productID, req.Quantity)

	h.respondCart(w, cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	cart := h.cart(r)
	cart.Remove(r.Context(), productID)

	h.respondCart(w, cart)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	cart.Clear(r.Context())

	h.respondCart(w, cart)
}

// Checkout handles POST /api/v1/cart/checkout. It derives the order
// payload consumed by order processing; the cart itself is left intact
// until the order service confirms.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cart := h.cart(r)
	if cart.IsEmpty() {
		respondError(w, h.logger, http.StatusUnprocessableEntity, "Cart is empty")
		return
	}

	draft := cart.CheckoutDraft(time.Now())

	h.logger.InfoContext(r.Context(), "cart checkout draft derived",
		slog.Int("lines", len(draft.Lines)),
		slog.String("total_ht", draft.TotalHT.String()))

	respondJSON(w, h.logger, http.StatusOK, draft)
}

func (h *CartHandler) respondCart(w http.ResponseWriter, cart *collection.Cart) {
	respondJSON(w, h.logger, http.StatusOK, CartResponse{
		Items:  cart.Items(),
		Totals: cart.Totals(),
	})
}
