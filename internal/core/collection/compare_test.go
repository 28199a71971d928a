// internal/core/collection/compare_test.go
package collection_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/collection"
	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
)

func compareEntry(productID int64) domain.ComparisonItem {
	return domain.ComparisonItem{
		ProductID: productID,
		Name:      "Test product",
		SKU:       "SKU-1",
		PriceHT:   decimal.NewFromFloat(100.00),
		PriceTTC:  decimal.NewFromFloat(120.00),
	}
}

func TestComparator_Add(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	cmp := collection.NewComparator("session-1", 4, time.Hour, kv, testLogger())
	cmp.Hydrate(ctx)

	assert.True(t, cmp.Add(ctx, compareEntry(1)))
	assert.True(t, cmp.Add(ctx, compareEntry(2)))

	t.Run("duplicate_returns_false", func(t *testing.T) {
		assert.False(t, cmp.Add(ctx, compareEntry(1)))
		assert.Equal(t, 2, cmp.Count())
	})

	t.Run("full_returns_false", func(t *testing.T) {
		assert.True(t, cmp.Add(ctx, compareEntry(3)))
		assert.True(t, cmp.Add(ctx, compareEntry(4)))
		assert.True(t, cmp.IsFull())

		assert.False(t, cmp.Add(ctx, compareEntry(5)))
		assert.Equal(t, 4, cmp.Count())
		assert.False(t, cmp.Contains(5))
	})
}

func TestComparator_Toggle(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	cmp := collection.NewComparator("session-1", 2, time.Hour, kv, testLogger())
	cmp.Hydrate(ctx)

	t.Run("absent_adds_and_reports_membership", func(t *testing.T) {
		assert.True(t, cmp.Toggle(ctx, compareEntry(1)))
		assert.True(t, cmp.Contains(1))
	})

	t.Run("present_removes_and_reports_absence", func(t *testing.T) {
		assert.False(t, cmp.Toggle(ctx, compareEntry(1)))
		assert.False(t, cmp.Contains(1))
	})

	t.Run("toggle_into_full_comparison_fails", func(t *testing.T) {
		require.True(t, cmp.Add(ctx, compareEntry(1)))
		require.True(t, cmp.Add(ctx, compareEntry(2)))

		assert.False(t, cmp.Toggle(ctx, compareEntry(3)))
		assert.False(t, cmp.Contains(3))
		assert.Equal(t, 2, cmp.Count())
	})
}

func TestComparator_DefaultCapacity(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	cmp := collection.NewComparator("session-1", 0, time.Hour, kv, testLogger())
	cmp.Hydrate(ctx)

	for i := int64(1); i <= int64(collection.DefaultCompareCapacity); i++ {
		assert.True(t, cmp.Add(ctx, compareEntry(i)))
	}
	assert.False(t, cmp.Add(ctx, compareEntry(99)))
}

func TestComparator_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	cmp := collection.NewComparator("session-1", 4, time.Hour, kv, testLogger())
	cmp.Hydrate(ctx)
	require.True(t, cmp.Add(ctx, compareEntry(1)))
	require.True(t, cmp.Add(ctx, compareEntry(2)))

	restored := collection.NewComparator("session-1", 4, time.Hour, kv, testLogger())
	restored.Hydrate(ctx)

	items := restored.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, int64(2), items[1].ProductID)
}

func TestComparator_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	cmp := collection.NewComparator("session-1", 4, time.Hour, kv, testLogger())
	cmp.Hydrate(ctx)
	require.True(t, cmp.Add(ctx, compareEntry(1)))
	require.True(t, cmp.Add(ctx, compareEntry(2)))

	cmp.Remove(ctx, 1)
	assert.False(t, cmp.Contains(1))
	assert.Equal(t, 1, cmp.Count())

	cmp.Clear(ctx)
	assert.True(t, cmp.IsEmpty())
}
