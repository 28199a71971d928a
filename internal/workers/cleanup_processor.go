// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kkzakaria/boom-informatique-sub001/internal/adapters/db"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/config"
)

// CleanupProcessor handles cleanup tasks
type CleanupProcessor struct {
	db     *db.Database
	config *config.Config
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(db *db.Database, config *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:     db,
		config: config,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// SweepExpiredQuotes moves overdue sent quotes to expired. Expiry is
// normally evaluated when a customer tries to accept; this sweep keeps
// listings honest for quotes nobody touches again. The conditional
// WHERE means a concurrent accept and the sweep cannot both win.
func (p *CleanupProcessor) SweepExpiredQuotes(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "sweeping expired quotes")

	query := `UPDATE quotes
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND valid_until IS NOT NULL AND valid_until < NOW()`

	result, err := p.db.Exec(ctx, query, domain.QuoteStatusExpired, domain.QuoteStatusSent)
	if err != nil {
		return fmt.Errorf("failed to sweep expired quotes: %w", err)
	}

	p.logger.InfoContext(ctx, "expired quotes swept",
		slog.Int64("quotes_expired", result.RowsAffected()))

	return nil
}

// CleanupExportFiles removes export artifacts older than the retention
func (p *CleanupProcessor) CleanupExportFiles(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up export files")

	exportDir := p.config.Export.Dir
	maxAge := p.config.Export.Retention

	var deletedCount int
	err := filepath.Walk(exportDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete export file",
					slog.String("file", path),
					slog.Any("error", err))
			} else {
				deletedCount++
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to walk export directory: %w", err)
	}

	p.logger.InfoContext(ctx, "export files cleaned up",
		slog.Int("files_deleted", deletedCount))

	return nil
}
