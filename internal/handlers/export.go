// internal/handlers/export.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/kkzakaria/boom-informatique-sub001/internal/adapters/redis_adapter"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
	"github.com/kkzakaria/boom-informatique-sub001/internal/workers"
)

// EnqueueExportRequest selects the dataset for a background export.
type EnqueueExportRequest struct {
	Dataset string `json:"dataset"`
}

// ExportHandler serves spreadsheet exports of the quote book and the
// inventory ledger. Small exports download synchronously; larger ones
// go through the worker and are fetched once completed.
type ExportHandler struct {
	quotes      ports.QuoteService
	stock       ports.StockService
	kv          ports.KeyValueStore
	asynqClient *asynq.Client
	exportDir   string
	retention   time.Duration
	logger      *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(quotes ports.QuoteService, stock ports.StockService, kv ports.KeyValueStore, asynqClient *asynq.Client, exportDir string, retention time.Duration, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		quotes:      quotes,
		stock:       stock,
		kv:          kv,
		asynqClient: asynqClient,
		exportDir:   exportDir,
		retention:   retention,
		logger:      logger.With(slog.String("handler", "export")),
	}
}

// ExportQuotes handles GET /api/v1/admin/export/quotes
func (h *ExportHandler) ExportQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	quotes, _, err := h.quotes.ListAll(ctx, user, ports.QuoteListParams{
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	file, err := workers.BuildQuoteWorkbook(quotes)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build quote workbook", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	h.serveWorkbook(w, r, file, fmt.Sprintf("quotes_%s.xlsx", time.Now().Format("20060102_150405")), len(quotes))
}

// ExportMovements handles GET /api/v1/admin/export/movements
func (h *ExportHandler) ExportMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)

	movements, _, err := h.stock.ListAll(ctx, user, ports.MovementListParams{
		SortOrder: "desc",
	})
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	file, err := workers.BuildMovementWorkbook(movements)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build movement workbook", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	h.serveWorkbook(w, r, file, fmt.Sprintf("movements_%s.xlsx", time.Now().Format("20060102_150405")), len(movements))
}

// EnqueueExport handles POST /api/v1/admin/exports
func (h *ExportHandler) EnqueueExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)
	if !user.IsAdmin() {
		respondDomainError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	var req EnqueueExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Dataset != workers.DatasetQuotes && req.Dataset != workers.DatasetMovements {
		respondError(w, h.logger, http.StatusBadRequest, "Unknown export dataset")
		return
	}

	exportID := uuid.New().String()
	status := workers.ExportStatus{
		ID:          exportID,
		Dataset:     req.Dataset,
		Status:      workers.ExportStatusPending,
		RequestedBy: user.ID,
		CreatedAt:   time.Now(),
	}
	if err := h.kv.SetWithTTL(ctx, redis_a.BuildKey(redis_a.PrefixExport, exportID), status, h.retention); err != nil {
		h.logger.ErrorContext(ctx, "failed to record export status", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to schedule export")
		return
	}

	payload, err := json.Marshal(workers.ExportJobPayload{
		ExportID:    exportID,
		Dataset:     req.Dataset,
		RequestedBy: user.ID,
	})
	if err != nil {
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to schedule export")
		return
	}

	task := asynq.NewTask(workers.TypeExportGenerate, payload)
	info, err := h.asynqClient.Enqueue(task,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(h.retention))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue export task", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to schedule export")
		return
	}

	h.logger.InfoContext(ctx, "export scheduled",
		slog.String("export_id", exportID),
		slog.String("dataset", req.Dataset),
		slog.String("task_id", info.ID))

	respondJSON(w, h.logger, http.StatusAccepted, map[string]string{
		"export_id": exportID,
		"dataset":   req.Dataset,
		"status":    workers.ExportStatusPending,
	})
}

// GetExport handles GET /api/v1/admin/exports/{id}
func (h *ExportHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)
	if !user.IsAdmin() {
		respondDomainError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	status, ok := h.loadStatus(w, r)
	if !ok {
		return
	}

	respondJSON(w, h.logger, http.StatusOK, status)
}

// DownloadExport handles GET /api/v1/admin/exports/{id}/download
func (h *ExportHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := middleware.UserFromContext(ctx)
	if !user.IsAdmin() {
		respondDomainError(w, h.logger, domain.ErrAccessDenied)
		return
	}

	status, ok := h.loadStatus(w, r)
	if !ok {
		return
	}

	if status.Status != workers.ExportStatusCompleted {
		respondError(w, h.logger, http.StatusConflict, "Export is not completed")
		return
	}

	// FileName comes from the worker, never the client; Base keeps the
	// path inside the export directory regardless.
	path := filepath.Join(h.exportDir, filepath.Base(status.FileName))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, h.logger, http.StatusGone, "Export file no longer available")
			return
		}
		h.logger.ErrorContext(ctx, "failed to read export file", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to read export file")
		return
	}

	writeSpreadsheetHeaders(w, status.FileName, len(data))
	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response", slog.Any("error", err))
	}
}

func (h *ExportHandler) loadStatus(w http.ResponseWriter, r *http.Request) (*workers.ExportStatus, bool) {
	ctx := r.Context()

	exportID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid export ID")
		return nil, false
	}

	var status workers.ExportStatus
	err = h.kv.Get(ctx, redis_a.BuildKey(redis_a.PrefixExport, exportID.String()), &status)
	if err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			respondError(w, h.logger, http.StatusNotFound, "Export not found")
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to load export status", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load export status")
		return nil, false
	}

	return &status, true
}

func (h *ExportHandler) serveWorkbook(w http.ResponseWriter, r *http.Request, file *xlsx.File, filename string, rows int) {
	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write workbook", slog.Any("error", err))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	writeSpreadsheetHeaders(w, filename, buffer.Len())
	if _, err := w.Write(buffer.Bytes()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write export response", slog.Any("error", err))
		return
	}

	h.logger.InfoContext(r.Context(), "export completed",
		slog.Int("total_rows", rows),
		slog.String("filename", filename))
}

func writeSpreadsheetHeaders(w http.ResponseWriter, filename string, size int) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}
