// internal/core/services/catalog.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

const catalogKeyPrefix = "catalog:product:"

// CatalogService serves catalog reads, fronting the repository with a
// cache-aside layer for single-product lookups.
type CatalogService struct {
	repo     ports.CatalogRepository
	kv       ports.KeyValueStore
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewCatalogService creates a catalog read service. The cache is
// optional; a nil kv disables it.
func NewCatalogService(repo ports.CatalogRepository, kv ports.KeyValueStore, cacheTTL time.Duration, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		kv:       kv,
		cacheTTL: cacheTTL,
		logger:   logger.With(slog.String("service", "catalog")),
	}
}

// GetProduct resolves a product by id, consulting the cache first.
// Missing products return (nil, nil); absence is never cached.
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	if s.kv == nil {
		return s.repo.FindByID(ctx, productID)
	}

	key := fmt.Sprintf("%s%d", catalogKeyPrefix, productID)

	var cached domain.Product
	err := s.kv.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "catalog cache read failed",
			slog.String("key", key),
			slog.Any("error", err))
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	if err := s.kv.SetWithTTL(ctx, key, product, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "catalog cache write failed",
			slog.String("key", key),
			slog.Any("error", err))
	}

	return product, nil
}

// ListProducts lists products straight from the repository.
func (s *CatalogService) ListProducts(ctx context.Context, params ports.CatalogListParams) ([]*domain.Product, int64, error) {
	return s.repo.List(ctx, params)
}

// InvalidateProduct drops a product's cache entry. Called after stock
// movements so the cached counter does not go stale for the TTL window.
func (s *CatalogService) InvalidateProduct(ctx context.Context, productID int64) {
	if s.kv == nil {
		return
	}
	key := fmt.Sprintf("%s%d", catalogKeyPrefix, productID)
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "catalog cache invalidation failed",
			slog.String("key", key),
			slog.Any("error", err))
	}
}
