package postgresql

import (
	"context"

	"github.com/stockroom/inventory-portal/internal/db"
	"github.com/stockroom/inventory-portal/internal/repository"
	"github.com/stockroom/inventory-portal/internal/storage"
)

const insertHistoryQuery = `
    INSERT INTO order_history (
        order_id, status, changed_at
    ) VALUES ($1, $2, $3)`

type HistoryRepo struct {
	db db.DB
}

func NewHistoryRepo(db db.DB) storage.HistoryRepository {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) CreateTx(ctx context.Context, tx db.Tx, entry *repository.HistoryEntry) error {
	_, err := tx.Exec(ctx, insertHistoryQuery, entry.OrderID, entry.Status, entry.ChangedAt)
	return err
}

func (r *HistoryRepo) GetByOrderID(ctx context.Context, orderID string) ([]*repository.HistoryEntry, error) {
	var entries []*repository.HistoryEntry
	err := r.db.Select(ctx, &entries, `
        SELECT id, order_id, status, changed_at FROM order_history
        WHERE order_id = $1
        ORDER BY changed_at ASC, id ASC
    `, orderID)
	return entries, err
}
