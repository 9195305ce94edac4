//go:generate mockgen -source ./manager.go -destination=./mocks/manager.go -package=mock_lifecycle
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom/inventory-portal/internal/metrics"
	"github.com/stockroom/inventory-portal/internal/storage"
)

var (
	ErrNotFound         = storage.ErrOrderNotFound
	ErrInvalidStockItem = errors.New("invalid stock item")
)

type Store interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status storage.Status) error
	SetAvailableQty(ctx context.Context, productID string, availableQty int) error
}

// StockItem is one product drawn down by an order. AvailableQty is the
// quantity the caller observed before the draw.
type StockItem struct {
	ProductID    string `json:"_id"`
	AvailableQty int    `json:"availableQty"`
	Quantity     int    `json:"quantity"`
}

type StockResult struct {
	ProductID string
	NewQty    int
	Err       error
}

type StockReport struct {
	Results []StockResult
}

func (r StockReport) Failed() []StockResult {
	var failed []StockResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err returns a *PartialStockUpdateError when at least one item failed.
func (r StockReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return &PartialStockUpdateError{Failed: failed, Total: len(r.Results)}
}

type PartialStockUpdateError struct {
	Failed []StockResult
	Total  int
}

func (e *PartialStockUpdateError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, res := range e.Failed {
		parts[i] = fmt.Sprintf("%s: %v", res.ProductID, res.Err)
	}
	return fmt.Sprintf("stock update failed for %d of %d products: %s", len(e.Failed), e.Total, strings.Join(parts, "; "))
}

type Manager struct {
	store       Store
	concurrency int
	logger      *zap.Logger
}

func NewManager(store Store, concurrency int, logger *zap.Logger) *Manager {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{store: store, concurrency: concurrency, logger: logger}
}

// SetStatus overwrites the order status. Any valid status may follow any other.
func (m *Manager) SetStatus(ctx context.Context, orderID, status string) error {
	l := m.logger.With(zap.String("order_id", orderID), zap.String("status", status))

	newStatus, err := storage.ParseStatus(status)
	if err != nil {
		return err
	}

	if err := m.store.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Info("Status update for unknown order")
			return err
		}
		metrics.OperationErrorsTotal.WithLabelValues("set_status").Inc()
		l.Error("Failed to update order status", zap.Error(err))
		return err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(newStatus)).Inc()
	l.Info("Order status updated")
	return nil
}

// ApplyStockDelta sets each product's available quantity to AvailableQty minus
// Quantity. Items are updated independently and one failure never stops the
// others. Updates to the same product from concurrent calls are not serialized.
func (m *Manager) ApplyStockDelta(ctx context.Context, items []StockItem) StockReport {
	results := make([]StockResult, len(items))

	g := new(errgroup.Group)
	g.SetLimit(m.concurrency)

	for i, item := range items {
		g.Go(func() error {
			results[i] = m.applyOne(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	report := StockReport{Results: results}
	if failed := report.Failed(); len(failed) > 0 {
		metrics.StockUpdateFailuresTotal.Add(float64(len(failed)))
		m.logger.Warn("Stock update partially failed", zap.Int("failed", len(failed)), zap.Int("total", len(items)))
	}
	return report
}

func (m *Manager) applyOne(ctx context.Context, item StockItem) StockResult {
	res := StockResult{ProductID: item.ProductID, NewQty: item.AvailableQty - item.Quantity}
	if item.ProductID == "" {
		res.Err = fmt.Errorf("%w: missing product id", ErrInvalidStockItem)
		return res
	}
	if err := m.store.SetAvailableQty(ctx, item.ProductID, res.NewQty); err != nil {
		m.logger.Error("Failed to update available stock", zap.String("product_id", item.ProductID), zap.Error(err))
		res.Err = err
	}
	return res
}
