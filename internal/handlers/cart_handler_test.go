// internal/handlers/cart_handler_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/kkzakaria/boom-informatique-sub001/internal/adapters/redis_adapter"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/services"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
	"github.com/kkzakaria/boom-informatique-sub001/test/helpers"
	"github.com/kkzakaria/boom-informatique-sub001/test/mocks"
)

func newCartHandler(t *testing.T) (*handlers.CartHandler, *mocks.MockCatalogRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCatalogRepository(ctrl)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	kv := redis_a.NewCache(client, time.Hour, helpers.TestLogger())

	catalog := services.NewCatalogService(repo, kv, time.Minute, helpers.TestLogger())
	return handlers.NewCartHandler(catalog, kv, time.Hour, helpers.TestLogger()), repo
}

// sessionRequest builds a request carrying a session id, the way it arrives
// after the session middleware.
func sessionRequest(t *testing.T, sessionID, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(middleware.WithSession(req.Context(), sessionID))
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) handlers.CartResponse {
	t.Helper()
	var resp handlers.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCartHandler_AddItem(t *testing.T) {
	t.Run("adds_then_merges", func(t *testing.T) {
		handler, repo := newCartHandler(t)
		product := helpers.CreateTestProduct()
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(product, nil).AnyTimes()

		req := sessionRequest(t, "sess-1", http.MethodPost, "/api/v1/cart/items",
			map[string]interface{}{"product_id": 1, "quantity": 2})
		rec := httptest.NewRecorder()
		handler.AddItem(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeCart(t, rec)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 2, resp.Items[0].Quantity)

		// Same product again: quantities merge on the existing line.
		req = sessionRequest(t, "sess-1", http.MethodPost, "/api/v1/cart/items",
			map[string]interface{}{"product_id": 1, "quantity": 3})
		rec = httptest.NewRecorder()
		handler.AddItem(rec, req)

		resp = decodeCart(t, rec)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 5, resp.Items[0].Quantity)
		assert.Equal(t, 5, resp.Totals.ItemCount)
	})

	t.Run("merge_clamps_to_stock", func(t *testing.T) {
		handler, repo := newCartHandler(t)
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.StockQuantity = 4
		})
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(product, nil).AnyTimes()

		for _, qty := range []int{3, 3} {
			req := sessionRequest(t, "sess-clamp", http.MethodPost, "/api/v1/cart/items",
				map[string]interface{}{"product_id": 1, "quantity": qty})
			rec := httptest.NewRecorder()
			handler.AddItem(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		req := sessionRequest(t, "sess-clamp", http.MethodGet, "/api/v1/cart", nil)
		rec := httptest.NewRecorder()
		handler.GetCart(rec, req)

		resp := decodeCart(t, rec)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 4, resp.Items[0].Quantity)
	})

	t.Run("inactive_product_not_available", func(t *testing.T) {
		handler, repo := newCartHandler(t)
		inactive := helpers.CreateTestProduct(func(p *domain.Product) {
			p.IsActive = false
		})
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(inactive, nil)

		req := sessionRequest(t, "sess-2", http.MethodPost, "/api/v1/cart/items",
			map[string]interface{}{"product_id": 1, "quantity": 1})
		rec := httptest.NewRecorder()
		handler.AddItem(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing_product_id", func(t *testing.T) {
		handler, _ := newCartHandler(t)

		req := sessionRequest(t, "sess-3", http.MethodPost, "/api/v1/cart/items",
			map[string]interface{}{"quantity": 1})
		rec := httptest.NewRecorder()
		handler.AddItem(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCartHandler_UpdateItem(t *testing.T) {
	handler, repo := newCartHandler(t)
	product := helpers.CreateTestProduct()
	repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(product, nil).AnyTimes()

	req := sessionRequest(t, "sess-upd", http.MethodPost, "/api/v1/cart/items",
		map[string]interface{}{"product_id": 1, "quantity": 2})
	handler.AddItem(httptest.NewRecorder(), req)

	t.Run("sets_quantity", func(t *testing.T) {
		req := sessionRequest(t, "sess-upd", http.MethodPut, "/api/v1/cart/items/1",
			map[string]interface{}{"quantity": 7})
		req.SetPathValue("id", "1")
		rec := httptest.NewRecorder()
		handler.UpdateItem(rec, req)

		resp := decodeCart(t, rec)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 7, resp.Items[0].Quantity)
	})

	t.Run("zero_removes_line", func(t *testing.T) {
		req := sessionRequest(t, "sess-upd", http.MethodPut, "/api/v1/cart/items/1",
			map[string]interface{}{"quantity": 0})
		req.SetPathValue("id", "1")
		rec := httptest.NewRecorder()
		handler.UpdateItem(rec, req)

		resp := decodeCart(t, rec)
		assert.Empty(t, resp.Items)
	})

	t.Run("bad_id", func(t *testing.T) {
		req := sessionRequest(t, "sess-upd", http.MethodPut, "/api/v1/cart/items/abc",
			map[string]interface{}{"quantity": 1})
		req.SetPathValue("id", "abc")
		rec := httptest.NewRecorder()
		handler.UpdateItem(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCartHandler_ClearCart(t *testing.T) {
	handler, repo := newCartHandler(t)
	repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil).AnyTimes()

	req := sessionRequest(t, "sess-clear", http.MethodPost, "/api/v1/cart/items",
		map[string]interface{}{"product_id": 1, "quantity": 2})
	handler.AddItem(httptest.NewRecorder(), req)

	req = sessionRequest(t, "sess-clear", http.MethodDelete, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.ClearCart(rec, req)

	resp := decodeCart(t, rec)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.Totals.ItemCount)
}

func TestCartHandler_Checkout(t *testing.T) {
	t.Run("empty_cart_rejected", func(t *testing.T) {
		handler, _ := newCartHandler(t)

		req := sessionRequest(t, "sess-empty", http.MethodPost, "/api/v1/cart/checkout", nil)
		rec := httptest.NewRecorder()
		handler.Checkout(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("derives_order_draft", func(t *testing.T) {
		handler, repo := newCartHandler(t)
		repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil).AnyTimes()

		req := sessionRequest(t, "sess-co", http.MethodPost, "/api/v1/cart/items",
			map[string]interface{}{"product_id": 1, "quantity": 2})
		handler.AddItem(httptest.NewRecorder(), req)

		req = sessionRequest(t, "sess-co", http.MethodPost, "/api/v1/cart/checkout", nil)
		rec := httptest.NewRecorder()
		handler.Checkout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var draft domain.OrderDraft
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
		assert.Equal(t, "cart", draft.Source)
		require.Len(t, draft.Lines, 1)
		assert.Equal(t, 2, draft.Lines[0].Quantity)
	})
}

func TestCartHandler_SessionIsolation(t *testing.T) {
	handler, repo := newCartHandler(t)
	repo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil).AnyTimes()

	req := sessionRequest(t, "sess-a", http.MethodPost, "/api/v1/cart/items",
		map[string]interface{}{"product_id": 1, "quantity": 1})
	handler.AddItem(httptest.NewRecorder(), req)

	req = sessionRequest(t, "sess-b", http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.GetCart(rec, req)

	resp := decodeCart(t, rec)
	assert.Empty(t, resp.Items)
}
