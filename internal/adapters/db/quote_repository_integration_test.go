// internal/adapters/db/quote_repository_integration_test.go
//go:build integration
// +build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/kkzakaria/boom-informatique-sub001/internal/adapters/db"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/test/helpers"
)

type QuoteRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.QuoteRepository
	ctx    context.Context
}

func (s *QuoteRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewQuoteRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *QuoteRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	helpers.InsertTestUser(s.T(), s.testDB.PgxPool, helpers.ProUser())
}

func (s *QuoteRepositorySuite) TestSaveAndFindByID() {
	quote := helpers.CreateTestQuote(helpers.ProUser().ID)

	s.Require().NoError(s.repo.Save(s.ctx, quote))

	found, err := s.repo.FindByID(s.ctx, quote.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(quote.QuoteNumber, found.QuoteNumber)
	s.Equal(domain.QuoteStatusDraft, found.Status)
	s.Require().Len(found.Items, 1)
	s.Equal(quote.Items[0].ProductSKU, found.Items[0].ProductSKU)
	s.True(quote.TotalHT.Equal(found.TotalHT))
}

func (s *QuoteRepositorySuite) TestSaveRejectsDuplicateQuoteNumber() {
	first := helpers.CreateTestQuote(helpers.ProUser().ID)
	s.Require().NoError(s.repo.Save(s.ctx, first))

	second := helpers.CreateTestQuote(helpers.ProUser().ID, func(q *domain.Quote) {
		q.QuoteNumber = first.QuoteNumber
	})

	err := s.repo.Save(s.ctx, second)
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrQuoteNumberTaken)

	// The failed save must not leave orphaned line items behind.
	var count int
	s.Require().NoError(s.testDB.PgxPool.QueryRow(s.ctx,
		`SELECT COUNT(*) FROM quote_items WHERE quote_id = $1`, second.ID).Scan(&count))
	s.Zero(count)
}

func (s *QuoteRepositorySuite) TestFindByIDMissing() {
	found, err := s.repo.FindByID(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *QuoteRepositorySuite) TestFindByOwnerNewestFirst() {
	older := helpers.CreateTestQuote(helpers.ProUser().ID, func(q *domain.Quote) {
		q.CreatedAt = time.Now().Add(-time.Hour)
	})
	newer := helpers.CreateTestQuote(helpers.ProUser().ID)
	s.Require().NoError(s.repo.Save(s.ctx, older))
	s.Require().NoError(s.repo.Save(s.ctx, newer))

	quotes, err := s.repo.FindByOwner(s.ctx, helpers.ProUser().ID)
	s.Require().NoError(err)
	s.Require().Len(quotes, 2)
	s.Equal(newer.ID, quotes[0].ID)
	s.Equal(older.ID, quotes[1].ID)
}

func (s *QuoteRepositorySuite) TestTransitionStatusCAS() {
	quote := helpers.CreateTestQuote(helpers.ProUser().ID)
	s.Require().NoError(s.repo.Save(s.ctx, quote))

	ok, err := s.repo.TransitionStatus(s.ctx, quote.ID, domain.QuoteStatusDraft, domain.QuoteStatusSent)
	s.Require().NoError(err)
	s.True(ok)

	// Second identical transition loses: the quote is no longer draft.
	ok, err = s.repo.TransitionStatus(s.ctx, quote.ID, domain.QuoteStatusDraft, domain.QuoteStatusSent)
	s.Require().NoError(err)
	s.False(ok)

	found, err := s.repo.FindByID(s.ctx, quote.ID)
	s.Require().NoError(err)
	s.Equal(domain.QuoteStatusSent, found.Status)
}

func (s *QuoteRepositorySuite) TestTransitionStatusUnknownQuote() {
	ok, err := s.repo.TransitionStatus(s.ctx, uuid.New(), domain.QuoteStatusSent, domain.QuoteStatusAccepted)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *QuoteRepositorySuite) TestFindAllFilters() {
	draft := helpers.CreateTestQuote(helpers.ProUser().ID)
	sent := helpers.CreateTestQuote(helpers.ProUser().ID, func(q *domain.Quote) {
		q.Status = domain.QuoteStatusSent
	})
	s.Require().NoError(s.repo.Save(s.ctx, draft))
	s.Require().NoError(s.repo.Save(s.ctx, sent))

	quotes, total, err := s.repo.FindAll(s.ctx, ports.QuoteListParams{Status: "sent", Limit: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(quotes, 1)
	s.Equal(sent.ID, quotes[0].ID)
}

func TestQuoteRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(QuoteRepositorySuite))
}
