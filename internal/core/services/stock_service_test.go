// internal/core/services/stock_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/services"
	"github.com/kkzakaria/boom-informatique-sub001/test/helpers"
	"github.com/kkzakaria/boom-informatique-sub001/test/mocks"
)

func newStockService(t *testing.T) (*services.StockService, *mocks.MockStockRepository, *mocks.MockCatalogRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockStockRepository(ctrl)
	catalog := mocks.NewMockCatalogRepository(ctrl)
	return services.NewStockService(ledger, catalog, helpers.TestLogger()), ledger, catalog
}

func movementInput() ports.RecordMovementInput {
	return ports.RecordMovementInput{
		ProductID: 1,
		Quantity:  5,
		Type:      domain.MovementIn,
		Reference: "PO-2026-042",
	}
}

func TestStockService_RecordMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("appends_with_identity_and_author", func(t *testing.T) {
		svc, ledger, catalog := newStockService(t)

		catalog.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil)
		ledger.EXPECT().
			Append(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, m *domain.StockMovement) error {
				assert.NotEqual(t, uuid.Nil, m.ID)
				assert.False(t, m.CreatedAt.IsZero())
				assert.Equal(t, helpers.AdminUser().ID, m.CreatedBy)
				return nil
			})

		movement, err := svc.RecordMovement(ctx, helpers.AdminUser(), movementInput())

		require.NoError(t, err)
		assert.Equal(t, 5, movement.SignedQuantity())
	})

	t.Run("outbound_movement_signs_negative", func(t *testing.T) {
		svc, ledger, catalog := newStockService(t)

		catalog.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil)
		ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

		input := movementInput()
		input.Type = domain.MovementOut
		input.Quantity = 3

		movement, err := svc.RecordMovement(ctx, helpers.AdminUser(), input)

		require.NoError(t, err)
		assert.Equal(t, -3, movement.SignedQuantity())
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		svc, _, _ := newStockService(t)

		_, err := svc.RecordMovement(ctx, helpers.ProUser(), movementInput())
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("invalid_movement_never_reaches_ledger", func(t *testing.T) {
		svc, _, _ := newStockService(t)

		input := movementInput()
		input.Quantity = -5

		_, err := svc.RecordMovement(ctx, helpers.AdminUser(), input)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown_product", func(t *testing.T) {
		svc, _, catalog := newStockService(t)

		catalog.EXPECT().FindByID(gomock.Any(), int64(1)).Return(nil, nil)

		_, err := svc.RecordMovement(ctx, helpers.AdminUser(), movementInput())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ledger_failure_is_wrapped", func(t *testing.T) {
		svc, ledger, catalog := newStockService(t)

		catalog.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil)
		ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("deadlock detected"))

		_, err := svc.RecordMovement(ctx, helpers.AdminUser(), movementInput())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deadlock detected")
	})
}

func TestStockService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("applies_default_limit", func(t *testing.T) {
		svc, ledger, _ := newStockService(t)

		ledger.EXPECT().
			History(gomock.Any(), int64(1), 50).
			Return([]*domain.StockMovement{helpers.CreateTestMovement(1)}, nil)

		movements, err := svc.History(ctx, helpers.AdminUser(), 1, 0)

		require.NoError(t, err)
		assert.Len(t, movements, 1)
	})

	t.Run("honors_explicit_limit", func(t *testing.T) {
		svc, ledger, _ := newStockService(t)

		ledger.EXPECT().History(gomock.Any(), int64(1), 10).Return(nil, nil)

		_, err := svc.History(ctx, helpers.AdminUser(), 1, 10)
		require.NoError(t, err)
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		svc, _, _ := newStockService(t)

		_, err := svc.History(ctx, helpers.CustomerUser(), 1, 0)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestStockService_ListAll(t *testing.T) {
	ctx := context.Background()

	t.Run("admin_lists_with_params", func(t *testing.T) {
		svc, ledger, _ := newStockService(t)
		params := ports.MovementListParams{MovementType: "in", Limit: 20}

		ledger.EXPECT().
			FindAll(gomock.Any(), params).
			Return([]*domain.StockMovement{helpers.CreateTestMovement(1)}, int64(1), nil)

		movements, total, err := svc.ListAll(ctx, helpers.AdminUser(), params)

		require.NoError(t, err)
		assert.Len(t, movements, 1)
		assert.Equal(t, int64(1), total)
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		svc, _, _ := newStockService(t)

		_, _, err := svc.ListAll(ctx, helpers.ProUser(), ports.MovementListParams{})
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestStockService_Level(t *testing.T) {
	ctx := context.Background()

	t.Run("counter_matches_ledger", func(t *testing.T) {
		svc, ledger, catalog := newStockService(t)

		catalog.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil)
		ledger.EXPECT().LedgerBalance(gomock.Any(), int64(1)).Return(10, nil)

		level, err := svc.Level(ctx, helpers.AdminUser(), 1)

		require.NoError(t, err)
		assert.Equal(t, 10, level.StockQuantity)
		assert.Equal(t, 10, level.LedgerBalance)
		assert.True(t, level.Consistent)
	})

	t.Run("drift_is_flagged", func(t *testing.T) {
		svc, ledger, catalog := newStockService(t)

		catalog.EXPECT().FindByID(gomock.Any(), int64(1)).Return(helpers.CreateTestProduct(), nil)
		ledger.EXPECT().LedgerBalance(gomock.Any(), int64(1)).Return(7, nil)

		level, err := svc.Level(ctx, helpers.AdminUser(), 1)

		require.NoError(t, err)
		assert.False(t, level.Consistent)
	})

	t.Run("unknown_product", func(t *testing.T) {
		svc, _, catalog := newStockService(t)

		catalog.EXPECT().FindByID(gomock.Any(), int64(99)).Return(nil, nil)

		_, err := svc.Level(ctx, helpers.AdminUser(), 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		svc, _, _ := newStockService(t)

		_, err := svc.Level(ctx, helpers.CustomerUser(), 1)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}
