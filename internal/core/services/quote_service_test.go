// internal/core/services/quote_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/services"
	"github.com/kkzakaria/boom-informatique-sub001/test/helpers"
	"github.com/kkzakaria/boom-informatique-sub001/test/mocks"
)

func newQuoteService(t *testing.T) (*services.QuoteService, *mocks.MockQuoteRepository, *mocks.MockCatalogRepository, *mocks.MockCustomerDirectory) {
	t.Helper()
	ctrl := gomock.NewController(t)
	quotes := mocks.NewMockQuoteRepository(ctrl)
	catalog := mocks.NewMockCatalogRepository(ctrl)
	customers := mocks.NewMockCustomerDirectory(ctrl)
	svc := services.NewQuoteService(quotes, catalog, customers,
		decimal.NewFromInt(20), 30, helpers.TestLogger())
	return svc, quotes, catalog, customers
}

func quoteInput() ports.CreateQuoteInput {
	return ports.CreateQuoteInput{
		Items: []ports.QuoteLineInput{
			{ProductID: 1, Quantity: 2, DiscountRate: decimal.Zero},
		},
	}
}

func TestQuoteService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots_catalog_price_and_identity", func(t *testing.T) {
		svc, quotes, catalog, _ := newQuoteService(t)
		product := helpers.CreateTestProduct()

		catalog.EXPECT().
			FindByIDs(gomock.Any(), []int64{1}).
			Return(map[int64]*domain.Product{1: product}, nil)
		quotes.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q *domain.Quote) error {
				require.Len(t, q.Items, 1)
				assert.Equal(t, product.Name, q.Items[0].ProductName)
				assert.Equal(t, product.SKU, q.Items[0].ProductSKU)
				assert.True(t, q.Items[0].UnitPriceHT.Equal(product.PriceHT))
				assert.Equal(t, domain.QuoteStatusDraft, q.Status)
				assert.Regexp(t, `^DEV\d{4}-[0-9A-Z]{6}$`, q.QuoteNumber)
				return nil
			})

		quote, err := svc.Create(ctx, helpers.ProUser(), quoteInput())

		require.NoError(t, err)
		assert.Equal(t, helpers.ProUser().ID, quote.OwnerID)
		require.NotNil(t, quote.ValidUntil)
	})

	t.Run("custom_unit_price_overrides_catalog", func(t *testing.T) {
		svc, quotes, catalog, _ := newQuoteService(t)
		custom := decimal.NewFromFloat(199.99)

		catalog.EXPECT().
			FindByIDs(gomock.Any(), gomock.Any()).
			Return(map[int64]*domain.Product{1: helpers.CreateTestProduct()}, nil)
		quotes.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q *domain.Quote) error {
				assert.True(t, q.Items[0].UnitPriceHT.Equal(custom))
				return nil
			})

		input := quoteInput()
		input.Items[0].UnitPriceHT = &custom

		_, err := svc.Create(ctx, helpers.ProUser(), input)
		require.NoError(t, err)
	})

	t.Run("requires_validated_pro", func(t *testing.T) {
		svc, _, _, _ := newQuoteService(t)

		_, err := svc.Create(ctx, helpers.CustomerUser(), quoteInput())
		assert.ErrorIs(t, err, domain.ErrAccessDenied)

		unvalidated := helpers.ProUser()
		unvalidated.IsValidated = false
		_, err = svc.Create(ctx, unvalidated, quoteInput())
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("rejects_empty_quote", func(t *testing.T) {
		svc, _, _, _ := newQuoteService(t)

		_, err := svc.Create(ctx, helpers.ProUser(), ports.CreateQuoteInput{})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects_inactive_product", func(t *testing.T) {
		svc, _, catalog, _ := newQuoteService(t)
		inactive := helpers.CreateTestProduct(func(p *domain.Product) {
			p.IsActive = false
		})

		catalog.EXPECT().
			FindByIDs(gomock.Any(), gomock.Any()).
			Return(map[int64]*domain.Product{1: inactive}, nil)

		_, err := svc.Create(ctx, helpers.ProUser(), quoteInput())
		assert.ErrorIs(t, err, domain.ErrProductInactive)
	})

	t.Run("rejects_unknown_product", func(t *testing.T) {
		svc, _, catalog, _ := newQuoteService(t)

		catalog.EXPECT().
			FindByIDs(gomock.Any(), gomock.Any()).
			Return(map[int64]*domain.Product{}, nil)

		_, err := svc.Create(ctx, helpers.ProUser(), quoteInput())
		assert.ErrorIs(t, err, domain.ErrProductInactive)
	})

	t.Run("retries_on_quote_number_conflict", func(t *testing.T) {
		svc, quotes, catalog, _ := newQuoteService(t)

		catalog.EXPECT().
			FindByIDs(gomock.Any(), gomock.Any()).
			Return(map[int64]*domain.Product{1: helpers.CreateTestProduct()}, nil)

		numbers := make(map[string]bool)
		gomock.InOrder(
			quotes.EXPECT().
				Save(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, q *domain.Quote) error {
					numbers[q.QuoteNumber] = true
					return domain.ErrQuoteNumberTaken
				}),
			quotes.EXPECT().
				Save(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, q *domain.Quote) error {
					assert.False(t, numbers[q.QuoteNumber], "retry must regenerate the number")
					return nil
				}),
		)

		_, err := svc.Create(ctx, helpers.ProUser(), quoteInput())
		require.NoError(t, err)
	})

	t.Run("repository_error_is_wrapped", func(t *testing.T) {
		svc, quotes, catalog, _ := newQuoteService(t)

		catalog.EXPECT().
			FindByIDs(gomock.Any(), gomock.Any()).
			Return(map[int64]*domain.Product{1: helpers.CreateTestProduct()}, nil)
		quotes.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(errors.New("connection refused"))

		_, err := svc.Create(ctx, helpers.ProUser(), quoteInput())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestQuoteService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("owner_reads_own_quote", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		owner := helpers.ProUser()
		quote := helpers.CreateTestQuote(owner.ID)

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)

		detail, err := svc.Get(ctx, owner, quote.ID)

		require.NoError(t, err)
		assert.Equal(t, quote.ID, detail.Quote.ID)
		assert.Nil(t, detail.Customer)
		assert.False(t, detail.Expired)
	})

	t.Run("admin_read_attaches_customer_summary", func(t *testing.T) {
		svc, quotes, _, customers := newQuoteService(t)
		quote := helpers.CreateTestQuote(helpers.ProUser().ID)

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)
		customers.EXPECT().
			FindCustomerSummary(gomock.Any(), quote.OwnerID).
			Return(&domain.CustomerSummary{ID: quote.OwnerID, Email: "achats@reseau-plus.fr"}, nil)

		detail, err := svc.Get(ctx, helpers.AdminUser(), quote.ID)

		require.NoError(t, err)
		require.NotNil(t, detail.Customer)
		assert.Equal(t, "achats@reseau-plus.fr", detail.Customer.Email)
	})

	t.Run("stranger_is_denied", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(helpers.ProUser().ID)

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)

		_, err := svc.Get(ctx, helpers.CustomerUser(), quote.ID)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("missing_quote", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		id := uuid.New()

		quotes.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)

		_, err := svc.Get(ctx, helpers.ProUser(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("elapsed_sent_quote_reads_as_expired", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		owner := helpers.ProUser()
		quote := helpers.CreateTestQuote(owner.ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusSent
			past := time.Now().AddDate(0, 0, -1)
			q.ValidUntil = &past
		})

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)

		detail, err := svc.Get(ctx, owner, quote.ID)

		require.NoError(t, err)
		assert.True(t, detail.Expired)
		// The stored status is untouched by a read.
		assert.Equal(t, domain.QuoteStatusSent, detail.Quote.Status)
	})
}

func TestQuoteService_Send(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("admin_sends_draft", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)

		quotes.EXPECT().
			TransitionStatus(gomock.Any(), id, domain.QuoteStatusDraft, domain.QuoteStatusSent).
			Return(true, nil)

		require.NoError(t, svc.Send(ctx, helpers.AdminUser(), id))
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		svc, _, _, _ := newQuoteService(t)
		assert.ErrorIs(t, svc.Send(ctx, helpers.ProUser(), id), domain.ErrAccessDenied)
	})

	t.Run("lost_transition_reports_invalid", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)

		quotes.EXPECT().
			TransitionStatus(gomock.Any(), id, domain.QuoteStatusDraft, domain.QuoteStatusSent).
			Return(false, nil)

		assert.ErrorIs(t, svc.Send(ctx, helpers.AdminUser(), id), domain.ErrInvalidTransition)
	})
}

func TestQuoteService_Accept(t *testing.T) {
	ctx := context.Background()
	owner := helpers.ProUser()

	t.Run("accepts_valid_sent_quote", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(owner.ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusSent
		})

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)
		quotes.EXPECT().
			TransitionStatus(gomock.Any(), quote.ID, domain.QuoteStatusSent, domain.QuoteStatusAccepted).
			Return(true, nil)

		draft, err := svc.Accept(ctx, owner, quote.ID)

		require.NoError(t, err)
		assert.Equal(t, "quote", draft.Source)
		assert.Equal(t, quote.QuoteNumber, draft.QuoteNumber)
		assert.Equal(t, owner.ID, draft.CustomerID)
		require.Len(t, draft.Lines, len(quote.Items))
		assert.True(t, draft.TotalHT.Equal(quote.TotalHT))
	})

	t.Run("elapsed_quote_expires_and_fails", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(owner.ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusSent
			past := time.Now().AddDate(0, 0, -1)
			q.ValidUntil = &past
		})

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)
		quotes.EXPECT().
			TransitionStatus(gomock.Any(), quote.ID, domain.QuoteStatusSent, domain.QuoteStatusExpired).
			Return(true, nil)

		_, err := svc.Accept(ctx, owner, quote.ID)
		assert.ErrorIs(t, err, domain.ErrQuoteExpired)
	})

	t.Run("draft_cannot_be_accepted", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(owner.ID)

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)

		_, err := svc.Accept(ctx, owner, quote.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("lost_race_reports_invalid", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(owner.ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusSent
		})

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)
		quotes.EXPECT().
			TransitionStatus(gomock.Any(), quote.ID, domain.QuoteStatusSent, domain.QuoteStatusAccepted).
			Return(false, nil)

		_, err := svc.Accept(ctx, owner, quote.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("only_owner_accepts", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(owner.ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusSent
		})

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)

		_, err := svc.Accept(ctx, helpers.CustomerUser(), quote.ID)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestQuoteService_Reject(t *testing.T) {
	ctx := context.Background()
	owner := helpers.ProUser()

	t.Run("owner_rejects_sent_quote", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(owner.ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusSent
		})

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)
		quotes.EXPECT().
			TransitionStatus(gomock.Any(), quote.ID, domain.QuoteStatusSent, domain.QuoteStatusRejected).
			Return(true, nil)

		require.NoError(t, svc.Reject(ctx, owner, quote.ID))
	})

	t.Run("terminal_status_is_rejected", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		quote := helpers.CreateTestQuote(owner.ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusAccepted
		})

		quotes.EXPECT().FindByID(gomock.Any(), quote.ID).Return(quote, nil)

		assert.ErrorIs(t, svc.Reject(ctx, owner, quote.ID), domain.ErrInvalidTransition)
	})
}

func TestQuoteService_ListAll(t *testing.T) {
	ctx := context.Background()

	t.Run("admin_lists_with_params", func(t *testing.T) {
		svc, quotes, _, _ := newQuoteService(t)
		params := ports.QuoteListParams{Status: "sent", Limit: 10}

		quotes.EXPECT().
			FindAll(gomock.Any(), params).
			Return([]*domain.Quote{helpers.CreateTestQuote("owner-1")}, int64(1), nil)

		result, total, err := svc.ListAll(ctx, helpers.AdminUser(), params)

		require.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, int64(1), total)
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		svc, _, _, _ := newQuoteService(t)

		_, _, err := svc.ListAll(ctx, helpers.ProUser(), ports.QuoteListParams{})
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}
