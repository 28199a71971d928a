// internal/workers/export_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/kkzakaria/boom-informatique-sub001/internal/adapters/redis_adapter"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/config"
)

// Task type identifiers
const (
	TypeExportGenerate      = "export:generate"
	TypeCleanupExpiredQuote = "cleanup:expired_quotes"
	TypeCleanupExportFiles  = "cleanup:export_files"
)

// Export datasets
const (
	DatasetQuotes    = "quotes"
	DatasetMovements = "movements"
)

// Export statuses
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// ExportJobPayload is the payload for export generation tasks
type ExportJobPayload struct {
	ExportID    string `json:"export_id"`
	Dataset     string `json:"dataset"`
	RequestedBy string `json:"requested_by"`
}

// ExportStatus tracks an export job from enqueue to completion. It lives
// in Redis under the export key family for the configured retention.
type ExportStatus struct {
	ID          string     `json:"id"`
	Dataset     string     `json:"dataset"`
	Status      string     `json:"status"`
	FileName    string     `json:"file_name,omitempty"`
	RowCount    int        `json:"row_count"`
	RequestedBy string     `json:"requested_by,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExportProcessor generates spreadsheet exports in the background
type ExportProcessor struct {
	quotes    ports.QuoteRepository
	movements ports.StockRepository
	kv        ports.KeyValueStore
	config    *config.Config
	logger    *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(quotes ports.QuoteRepository, movements ports.StockRepository, kv ports.KeyValueStore, cfg *config.Config, logger *slog.Logger) *ExportProcessor {
	return &ExportProcessor{
		quotes:    quotes,
		movements: movements,
		kv:        kv,
		config:    cfg,
		logger:    logger.With(slog.String("processor", "export")),
	}
}

// ProcessExport handles export generation tasks
func (p *ExportProcessor) ProcessExport(ctx context.Context, t *asynq.Task) error {
	var payload ExportJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal export payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing export",
		slog.String("export_id", payload.ExportID),
		slog.String("dataset", payload.Dataset))

	ctx, cancel := context.WithTimeout(ctx, p.config.Export.Timeout)
	defer cancel()

	status := ExportStatus{
		ID:          payload.ExportID,
		Dataset:     payload.Dataset,
		Status:      ExportStatusPending,
		RequestedBy: payload.RequestedBy,
		CreatedAt:   time.Now(),
	}

	file, rows, err := p.buildWorkbook(ctx, payload.Dataset)
	if err != nil {
		p.failExport(ctx, &status, err)
		return fmt.Errorf("failed to build %s workbook: %w", payload.Dataset, err)
	}

	fileName := fmt.Sprintf("%s_%s.xlsx", payload.Dataset, payload.ExportID)
	if err := p.writeFile(file, fileName); err != nil {
		p.failExport(ctx, &status, err)
		return fmt.Errorf("failed to write export file: %w", err)
	}

	now := time.Now()
	status.Status = ExportStatusCompleted
	status.FileName = fileName
	status.RowCount = rows
	status.CompletedAt = &now
	p.saveStatus(ctx, &status)

	p.logger.InfoContext(ctx, "export completed",
		slog.String("export_id", payload.ExportID),
		slog.String("file", fileName),
		slog.Int("rows", rows))

	return nil
}

func (p *ExportProcessor) buildWorkbook(ctx context.Context, dataset string) (*xlsx.File, int, error) {
	switch dataset {
	case DatasetQuotes:
		quotes, _, err := p.quotes.FindAll(ctx, ports.QuoteListParams{
			SortBy:    "created_at",
			SortOrder: "desc",
		})
		if err != nil {
			return nil, 0, err
		}
		file, err := BuildQuoteWorkbook(quotes)
		return file, len(quotes), err
	case DatasetMovements:
		movements, _, err := p.movements.FindAll(ctx, ports.MovementListParams{
			SortOrder: "desc",
		})
		if err != nil {
			return nil, 0, err
		}
		file, err := BuildMovementWorkbook(movements)
		return file, len(movements), err
	default:
		return nil, 0, fmt.Errorf("unknown export dataset %q", dataset)
	}
}

func (p *ExportProcessor) writeFile(file *xlsx.File, fileName string) error {
	if err := os.MkdirAll(p.config.Export.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return file.Save(filepath.Join(p.config.Export.Dir, fileName))
}

func (p *ExportProcessor) failExport(ctx context.Context, status *ExportStatus, cause error) {
	now := time.Now()
	status.Status = ExportStatusFailed
	status.Error = cause.Error()
	status.CompletedAt = &now
	p.saveStatus(ctx, status)
}

func (p *ExportProcessor) saveStatus(ctx context.Context, status *ExportStatus) {
	key := redis_a.BuildKey(redis_a.PrefixExport, status.ID)
	if err := p.kv.SetWithTTL(ctx, key, status, p.config.Export.Retention); err != nil {
		p.logger.WarnContext(ctx, "failed to save export status",
			slog.String("export_id", status.ID),
			slog.Any("error", err))
	}
}

// BuildQuoteWorkbook renders the quote book as a spreadsheet, one row
// per quote with the snapshotted totals.
func BuildQuoteWorkbook(quotes []*domain.Quote) (*xlsx.File, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Quotes")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Quote Number", "Status", "Owner", "Valid Until",
		"Subtotal HT", "Discount", "Tax", "Total HT", "Lines", "Created At",
	}
	addHeaderRow(sheet, headers)

	for _, q := range quotes {
		validUntil := ""
		if q.ValidUntil != nil {
			validUntil = q.ValidUntil.Format("2006-01-02")
		}
		addDataRow(sheet,
			q.QuoteNumber,
			string(q.Status),
			q.OwnerID,
			validUntil,
			q.SubtotalHT.StringFixed(2),
			q.DiscountAmount.StringFixed(2),
			q.TaxAmount.StringFixed(2),
			q.TotalHT.StringFixed(2),
			fmt.Sprintf("%d", len(q.Items)),
			q.CreatedAt.Format(time.RFC3339),
		)
	}

	// Column bounds are 1-based.
	for i := range headers {
		sheet.SetColWidth(i+1, i+1, 15)
	}

	return file, nil
}

// BuildMovementWorkbook renders the inventory ledger as a spreadsheet,
// newest movements first.
func BuildMovementWorkbook(movements []*domain.StockMovement) (*xlsx.File, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Stock Movements")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Product ID", "Type", "Quantity", "Signed Quantity",
		"Reference", "Notes", "Recorded By", "Recorded At",
	}
	addHeaderRow(sheet, headers)

	for _, m := range movements {
		addDataRow(sheet,
			fmt.Sprintf("%d", m.ProductID),
			string(m.Type),
			fmt.Sprintf("%d", m.Quantity),
			fmt.Sprintf("%d", m.SignedQuantity()),
			m.Reference,
			m.Notes,
			m.CreatedBy,
			m.CreatedAt.Format(time.RFC3339),
		)
	}

	for i := range headers {
		sheet.SetColWidth(i+1, i+1, 15)
	}

	return file, nil
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, header := range headers {
		cell := row.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
}

func addDataRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, value := range values {
		cell := row.AddCell()
		cell.Value = value
	}
}
