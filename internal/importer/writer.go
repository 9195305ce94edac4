package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockroom/inventory-portal/internal/metrics"
	"github.com/stockroom/inventory-portal/internal/orderid"
	"github.com/stockroom/inventory-portal/internal/storage"
)

//go:generate mockgen -source ./writer.go -destination=./mocks/writer.go -package=mock_importer

type OrderStore interface {
	AddOrder(ctx context.Context, order storage.Order) error
	AddOrders(ctx context.Context, orders []storage.Order) (int, error)
}

type BatchResult struct {
	Inserted int
	Retried  bool
}

// PersistenceError reports a batch the store rejected. With a transactional
// store Inserted is always zero.
type PersistenceError struct {
	Index    int
	Inserted int
	Failed   int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist orders: %d inserted, %d failed: %v", e.Inserted, e.Failed, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Writer persists normalized orders. A unique violation on the order id is
// treated as an id collision: the colliding order gets a new id and the write
// is retried once.
type Writer struct {
	store  OrderStore
	ids    orderid.Generator
	logger *zap.Logger
}

func NewWriter(store OrderStore, ids orderid.Generator, logger *zap.Logger) *Writer {
	return &Writer{store: store, ids: ids, logger: logger}
}

func (w *Writer) WriteBatch(ctx context.Context, orders []storage.Order) (BatchResult, error) {
	n, err := w.store.AddOrders(ctx, orders)
	if err == nil {
		return BatchResult{Inserted: n}, nil
	}

	var bulkErr *storage.BulkInsertError
	if errors.Is(err, storage.ErrDuplicateOrderID) && errors.As(err, &bulkErr) && bulkErr.Index >= 0 && bulkErr.Index < len(orders) {
		old := orders[bulkErr.Index].OrderID
		orders[bulkErr.Index].OrderID = w.ids.Generate()
		metrics.ImportIDRetriesTotal.Inc()
		w.logger.Warn("Order id collision, retrying batch",
			zap.String("old_order_id", old),
			zap.String("new_order_id", orders[bulkErr.Index].OrderID),
			zap.Int("row", bulkErr.Index+1),
		)

		n, err = w.store.AddOrders(ctx, orders)
		if err == nil {
			return BatchResult{Inserted: n, Retried: true}, nil
		}
	}

	return BatchResult{}, toPersistenceError(err, len(orders))
}

// WriteOne persists a single order with the same collision handling as WriteBatch.
func (w *Writer) WriteOne(ctx context.Context, order *storage.Order) error {
	err := w.store.AddOrder(ctx, *order)
	if errors.Is(err, storage.ErrDuplicateOrderID) {
		order.OrderID = w.ids.Generate()
		metrics.ImportIDRetriesTotal.Inc()
		w.logger.Warn("Order id collision, retrying", zap.String("new_order_id", order.OrderID))
		err = w.store.AddOrder(ctx, *order)
	}
	if err != nil {
		return toPersistenceError(err, 1)
	}
	return nil
}

func toPersistenceError(err error, total int) error {
	var bulkErr *storage.BulkInsertError
	if errors.As(err, &bulkErr) {
		return &PersistenceError{Index: bulkErr.Index, Inserted: bulkErr.Inserted, Failed: bulkErr.Failed, Err: err}
	}
	return &PersistenceError{Index: -1, Inserted: 0, Failed: total, Err: err}
}
