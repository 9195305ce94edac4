// Package importer turns uploaded spreadsheets into persisted orders.
package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stockroom/inventory-portal/internal/csvimport"
	"github.com/stockroom/inventory-portal/internal/metrics"
	"github.com/stockroom/inventory-portal/internal/storage"
)

type Result struct {
	Rows     int
	Inserted int
	Retried  bool
}

type Importer struct {
	normalizer *Normalizer
	writer     *Writer
	logger     *zap.Logger
}

func NewImporter(normalizer *Normalizer, writer *Writer, logger *zap.Logger) *Importer {
	return &Importer{normalizer: normalizer, writer: writer, logger: logger}
}

// Import decodes, normalizes and writes every row of the upload as one batch.
// The first bad row aborts the import before anything is written. The upload
// is released on every return path.
func (i *Importer) Import(ctx context.Context, upload *Upload) (res Result, err error) {
	start := time.Now()
	l := i.logger.With(zap.String("upload", upload.Name))

	defer func() {
		if releaseErr := upload.Release(); releaseErr != nil {
			l.Error("Failed to release upload", zap.Error(releaseErr))
		}

		metrics.ImportDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ImportsTotal.WithLabelValues("failed").Inc()
			l.Error("Import failed", zap.Error(err), zap.Int("rows", res.Rows))
			return
		}
		metrics.ImportsTotal.WithLabelValues("succeeded").Inc()
		l.Info("Import finished", zap.Int("inserted", res.Inserted), zap.Bool("retried", res.Retried))
	}()

	f, err := upload.Open()
	if err != nil {
		return res, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	dec, err := csvimport.NewDecoder(f, RequiredColumns...)
	if err != nil {
		return res, err
	}

	var orders []storage.Order
	for row, err := range dec.All() {
		if err != nil {
			return res, err
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		order, err := i.normalizer.Normalize(row)
		if err != nil {
			return res, err
		}
		orders = append(orders, order)
		res.Rows++
	}

	if len(orders) == 0 {
		return res, nil
	}

	batch, err := i.writer.WriteBatch(ctx, orders)
	if err != nil {
		return res, err
	}

	metrics.OrdersCreatedTotal.Add(float64(batch.Inserted))
	res.Inserted = batch.Inserted
	res.Retried = batch.Retried
	return res, nil
}

// CreateOrder persists a single submitted order and returns it as stored.
func (i *Importer) CreateOrder(ctx context.Context, order storage.Order) (storage.Order, error) {
	prepared := i.normalizer.Prepare(order)
	if err := i.writer.WriteOne(ctx, &prepared); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_order").Inc()
		return storage.Order{}, err
	}
	metrics.OrdersCreatedTotal.Inc()
	i.logger.Info("Order created", zap.String("order_id", prepared.OrderID))
	return prepared, nil
}
