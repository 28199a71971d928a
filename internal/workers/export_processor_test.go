// internal/workers/export_processor_test.go
package workers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/workers"
	"github.com/kkzakaria/boom-informatique-sub001/test/helpers"
)

func TestBuildQuoteWorkbook(t *testing.T) {
	quotes := []*domain.Quote{
		helpers.CreateTestQuote(helpers.ProUser().ID),
		helpers.CreateTestQuote(helpers.ProUser().ID, func(q *domain.Quote) {
			q.Status = domain.QuoteStatusSent
		}),
	}

	file, err := workers.BuildQuoteWorkbook(quotes)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Quotes", sheet.Name)
	// Header row plus one row per quote.
	assert.Equal(t, 3, sheet.MaxRow)

	header, err := sheet.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "Quote Number", header.Value)

	number, err := sheet.Cell(1, 0)
	require.NoError(t, err)
	assert.Equal(t, quotes[0].QuoteNumber, number.Value)

	status, err := sheet.Cell(2, 1)
	require.NoError(t, err)
	assert.Equal(t, "sent", status.Value)

	total, err := sheet.Cell(1, 7)
	require.NoError(t, err)
	assert.Equal(t, quotes[0].TotalHT.StringFixed(2), total.Value)
}

func TestBuildQuoteWorkbook_Empty(t *testing.T) {
	file, err := workers.BuildQuoteWorkbook(nil)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	assert.Equal(t, 1, file.Sheets[0].MaxRow)
}

func TestBuildMovementWorkbook(t *testing.T) {
	movements := []*domain.StockMovement{
		helpers.CreateTestMovement(1),
		helpers.CreateTestMovement(1, func(m *domain.StockMovement) {
			m.Type = domain.MovementOut
			m.Quantity = 3
		}),
	}

	file, err := workers.BuildMovementWorkbook(movements)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Stock Movements", sheet.Name)
	assert.Equal(t, 3, sheet.MaxRow)

	signed, err := sheet.Cell(2, 3)
	require.NoError(t, err)
	assert.Equal(t, "-3", signed.Value)

	reference, err := sheet.Cell(1, 4)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-001", reference.Value)
}
