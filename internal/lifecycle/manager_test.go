package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_lifecycle "github.com/stockroom/inventory-portal/internal/lifecycle/mocks"
	"github.com/stockroom/inventory-portal/internal/storage"
)

func TestManager_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 4, zap.NewNop())

		store.EXPECT().UpdateOrderStatus(ctx, "AbCdEfGhIj", storage.StatusCompleted).Return(nil)
		assert.NoError(t, m.SetStatus(ctx, "AbCdEfGhIj", "completed"))
	})

	t.Run("setting the same status twice is idempotent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 4, zap.NewNop())

		current := storage.StatusProcessing
		store.EXPECT().UpdateOrderStatus(ctx, "AbCdEfGhIj", storage.StatusReady).
			DoAndReturn(func(_ context.Context, _ string, status storage.Status) error {
				current = status
				return nil
			}).Times(2)

		require.NoError(t, m.SetStatus(ctx, "AbCdEfGhIj", "ready"))
		once := current
		require.NoError(t, m.SetStatus(ctx, "AbCdEfGhIj", "ready"))
		assert.Equal(t, once, current)
	})

	t.Run("any transition is allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 4, zap.NewNop())

		store.EXPECT().UpdateOrderStatus(ctx, "AbCdEfGhIj", storage.StatusProcessing).Return(nil)
		assert.NoError(t, m.SetStatus(ctx, "AbCdEfGhIj", "processing"))
	})

	t.Run("unknown order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 4, zap.NewNop())

		store.EXPECT().UpdateOrderStatus(ctx, "nonexistent-id", storage.StatusCompleted).
			Return(fmt.Errorf("%w: nonexistent-id", storage.ErrOrderNotFound))

		err := m.SetStatus(ctx, "nonexistent-id", "completed")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid status never reaches the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 4, zap.NewNop())

		err := m.SetStatus(ctx, "AbCdEfGhIj", "shipped")
		assert.ErrorIs(t, err, storage.ErrInvalidStatus)
	})
}

func TestManager_ApplyStockDelta(t *testing.T) {
	ctx := context.Background()

	t.Run("all items updated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 4, zap.NewNop())

		store.EXPECT().SetAvailableQty(ctx, "A", 7).Return(nil)
		store.EXPECT().SetAvailableQty(ctx, "B", 0).Return(nil)

		report := m.ApplyStockDelta(ctx, []StockItem{
			{ProductID: "A", AvailableQty: 10, Quantity: 3},
			{ProductID: "B", AvailableQty: 5, Quantity: 5},
		})

		require.NoError(t, report.Err())
		assert.Equal(t, []StockResult{{ProductID: "A", NewQty: 7}, {ProductID: "B", NewQty: 0}}, report.Results)
	})

	t.Run("one failure does not block the others", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 1, zap.NewNop())

		storeErr := errors.New("connection reset")
		store.EXPECT().SetAvailableQty(ctx, "B", 0).Return(storeErr)
		store.EXPECT().SetAvailableQty(ctx, "A", 7).Return(nil)

		report := m.ApplyStockDelta(ctx, []StockItem{
			{ProductID: "B", AvailableQty: 5, Quantity: 5},
			{ProductID: "A", AvailableQty: 10, Quantity: 3},
		})

		assert.Equal(t, StockResult{ProductID: "A", NewQty: 7}, report.Results[1])
		assert.Equal(t, storeErr, report.Results[0].Err)

		var partial *PartialStockUpdateError
		require.ErrorAs(t, report.Err(), &partial)
		require.Len(t, partial.Failed, 1)
		assert.Equal(t, "B", partial.Failed[0].ProductID)
		assert.Equal(t, 2, partial.Total)
		assert.Contains(t, partial.Error(), "1 of 2 products")
	})

	t.Run("missing product id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock_lifecycle.NewMockStore(ctrl)
		m := NewManager(store, 4, zap.NewNop())

		report := m.ApplyStockDelta(ctx, []StockItem{{AvailableQty: 3, Quantity: 1}})
		assert.ErrorIs(t, report.Results[0].Err, ErrInvalidStockItem)
		assert.Error(t, report.Err())
	})

	t.Run("bounded fan-out", func(t *testing.T) {
		const limit = 3
		var (
			mu      sync.Mutex
			active  int
			maxSeen int
		)
		store := storeFunc(func(ctx context.Context, productID string, qty int) error {
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		})
		m := NewManager(store, limit, zap.NewNop())

		items := make([]StockItem, 50)
		for i := range items {
			items[i] = StockItem{ProductID: fmt.Sprintf("p%d", i), AvailableQty: 10, Quantity: 1}
		}

		report := m.ApplyStockDelta(ctx, items)
		require.NoError(t, report.Err())
		assert.Len(t, report.Results, 50)
		assert.LessOrEqual(t, maxSeen, limit)
	})

	t.Run("empty batch", func(t *testing.T) {
		m := NewManager(storeFunc(nil), 2, zap.NewNop())
		report := m.ApplyStockDelta(ctx, nil)
		assert.Empty(t, report.Results)
		assert.NoError(t, report.Err())
	})
}

type storeFunc func(ctx context.Context, productID string, qty int) error

func (f storeFunc) UpdateOrderStatus(ctx context.Context, orderID string, status storage.Status) error {
	return nil
}

func (f storeFunc) SetAvailableQty(ctx context.Context, productID string, qty int) error {
	return f(ctx, productID, qty)
}
