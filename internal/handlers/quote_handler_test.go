// internal/handlers/quote_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
	"github.com/kkzakaria/boom-informatique-sub001/test/helpers"
	"github.com/kkzakaria/boom-informatique-sub001/test/mocks"
)

func newQuoteHandler(t *testing.T) (*handlers.QuoteHandler, *mocks.MockQuoteService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockQuoteService(ctrl)
	return handlers.NewQuoteHandler(service, helpers.TestLogger()), service
}

// authedRequest builds a request carrying an authenticated user, the way it
// arrives after the auth middleware.
func authedRequest(t *testing.T, user *domain.User, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestQuoteHandler_CreateQuote(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		handler, service := newQuoteHandler(t)
		owner := helpers.ProUser()
		quote := helpers.CreateTestQuote(owner.ID)

		service.EXPECT().
			Create(gomock.Any(), owner, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.User, input ports.CreateQuoteInput) (*domain.Quote, error) {
				require.Len(t, input.Items, 1)
				assert.Equal(t, int64(1), input.Items[0].ProductID)
				assert.Equal(t, 2, input.Items[0].Quantity)
				return quote, nil
			})

		req := authedRequest(t, owner, http.MethodPost, "/api/v1/quotes", map[string]interface{}{
			"items": []map[string]interface{}{
				{"product_id": 1, "quantity": 2},
			},
		})
		rec := httptest.NewRecorder()

		handler.CreateQuote(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var got domain.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, quote.QuoteNumber, got.QuoteNumber)
	})

	t.Run("malformed_body", func(t *testing.T) {
		handler, _ := newQuoteHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewBufferString("{not json"))
		req = req.WithContext(middleware.WithUser(req.Context(), helpers.ProUser()))
		rec := httptest.NewRecorder()

		handler.CreateQuote(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("access_denied", func(t *testing.T) {
		handler, service := newQuoteHandler(t)

		service.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, domain.ErrAccessDenied)

		req := authedRequest(t, helpers.CustomerUser(), http.MethodPost, "/api/v1/quotes",
			map[string]interface{}{"items": []map[string]interface{}{{"product_id": 1, "quantity": 1}}})
		rec := httptest.NewRecorder()

		handler.CreateQuote(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("inactive_product", func(t *testing.T) {
		handler, service := newQuoteHandler(t)

		service.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("product 9: %w", domain.ErrProductInactive))

		req := authedRequest(t, helpers.ProUser(), http.MethodPost, "/api/v1/quotes",
			map[string]interface{}{"items": []map[string]interface{}{{"product_id": 9, "quantity": 1}}})
		rec := httptest.NewRecorder()

		handler.CreateQuote(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestQuoteHandler_GetQuote(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		handler, service := newQuoteHandler(t)
		owner := helpers.ProUser()
		quote := helpers.CreateTestQuote(owner.ID)

		service.EXPECT().
			Get(gomock.Any(), owner, quote.ID).
			Return(&ports.QuoteDetail{Quote: quote}, nil)

		req := authedRequest(t, owner, http.MethodGet, "/api/v1/quotes/"+quote.ID.String(), nil)
		req.SetPathValue("id", quote.ID.String())
		rec := httptest.NewRecorder()

		handler.GetQuote(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad_id", func(t *testing.T) {
		handler, _ := newQuoteHandler(t)

		req := authedRequest(t, helpers.ProUser(), http.MethodGet, "/api/v1/quotes/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()

		handler.GetQuote(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		handler, service := newQuoteHandler(t)
		id := uuid.New()

		service.EXPECT().
			Get(gomock.Any(), gomock.Any(), id).
			Return(nil, fmt.Errorf("quote %s: %w", id, domain.ErrNotFound))

		req := authedRequest(t, helpers.ProUser(), http.MethodGet, "/api/v1/quotes/"+id.String(), nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		handler.GetQuote(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestQuoteHandler_AcceptQuote(t *testing.T) {
	t.Run("accepted_returns_order_draft", func(t *testing.T) {
		handler, service := newQuoteHandler(t)
		owner := helpers.ProUser()
		id := uuid.New()

		service.EXPECT().
			Accept(gomock.Any(), owner, id).
			Return(&domain.OrderDraft{Source: "quote", QuoteNumber: "DEV2608-A1B2C3"}, nil)

		req := authedRequest(t, owner, http.MethodPost, "/api/v1/quotes/"+id.String()+"/accept", nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		handler.AcceptQuote(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		draft, ok := body["order_draft"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "quote", draft["source"])
		assert.Equal(t, "DEV2608-A1B2C3", draft["quote_number"])
	})

	t.Run("expired_conflicts", func(t *testing.T) {
		handler, service := newQuoteHandler(t)
		id := uuid.New()

		service.EXPECT().
			Accept(gomock.Any(), gomock.Any(), id).
			Return(nil, fmt.Errorf("quote DEV2607-XYZ123: %w", domain.ErrQuoteExpired))

		req := authedRequest(t, helpers.ProUser(), http.MethodPost, "/api/v1/quotes/"+id.String()+"/accept", nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		handler.AcceptQuote(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("wrong_state_conflicts", func(t *testing.T) {
		handler, service := newQuoteHandler(t)
		id := uuid.New()

		service.EXPECT().
			Accept(gomock.Any(), gomock.Any(), id).
			Return(nil, domain.ErrInvalidTransition)

		req := authedRequest(t, helpers.ProUser(), http.MethodPost, "/api/v1/quotes/"+id.String()+"/accept", nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		handler.AcceptQuote(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestQuoteHandler_SendQuote(t *testing.T) {
	handler, service := newQuoteHandler(t)
	admin := helpers.AdminUser()
	id := uuid.New()

	service.EXPECT().Send(gomock.Any(), admin, id).Return(nil)

	req := authedRequest(t, admin, http.MethodPost, "/api/v1/admin/quotes/"+id.String()+"/send", nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	handler.SendQuote(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuoteHandler_ListAllQuotes(t *testing.T) {
	t.Run("forwards_filters", func(t *testing.T) {
		handler, service := newQuoteHandler(t)
		admin := helpers.AdminUser()

		service.EXPECT().
			ListAll(gomock.Any(), admin, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.User, params ports.QuoteListParams) ([]*domain.Quote, int64, error) {
				assert.Equal(t, "sent", params.Status)
				assert.Equal(t, 10, params.Limit)
				assert.Equal(t, 20, params.Offset)
				return []*domain.Quote{helpers.CreateTestQuote(helpers.ProUser().ID)}, 1, nil
			})

		req := authedRequest(t, admin, http.MethodGet, "/api/v1/admin/quotes?status=sent&limit=10&offset=20", nil)
		rec := httptest.NewRecorder()

		handler.ListAllQuotes(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("oversized_limit_falls_back", func(t *testing.T) {
		handler, service := newQuoteHandler(t)

		service.EXPECT().
			ListAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *domain.User, params ports.QuoteListParams) ([]*domain.Quote, int64, error) {
				assert.Equal(t, 50, params.Limit)
				return nil, 0, nil
			})

		req := authedRequest(t, helpers.AdminUser(), http.MethodGet, "/api/v1/admin/quotes?limit=5000", nil)
		rec := httptest.NewRecorder()

		handler.ListAllQuotes(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
