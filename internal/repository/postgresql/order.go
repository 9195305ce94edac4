package postgresql

import (
	"context"
	"fmt"

	"github.com/stockroom/inventory-portal/internal/db"
	"github.com/stockroom/inventory-portal/internal/repository"
	"github.com/stockroom/inventory-portal/internal/storage"
)

const orderColumns = `
    order_id, image, name, phone, address, district, products, quantity, courier,
    delivery_charge, discount, total, advance, cash, instruction, order_status, created_at`

const insertOrderQuery = `
    INSERT INTO orders (` + orderColumns + `)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const selectOrderQuery = `SELECT id, ` + orderColumns + ` FROM orders`

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) storage.OrderRepository {
	return &OrderRepo{db: db}
}

func orderArgs(o *repository.Order) []interface{} {
	return []interface{}{
		o.OrderID, o.Image, o.Name, o.Phone, o.Address, o.District, o.Products, o.Quantity, o.Courier,
		o.DeliveryCharge, o.Discount, o.Total, o.Advance, o.Cash, o.Instruction, o.OrderStatus, o.CreatedAt,
	}
}

func (r *OrderRepo) CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error {
	_, err := tx.Exec(ctx, insertOrderQuery, orderArgs(order)...)
	return mapError(err)
}

// CreateManyTx inserts orders in the given order and stops at the first failure.
// It returns the number of rows inserted before the failing one, which is also
// the index of that row in orders.
func (r *OrderRepo) CreateManyTx(ctx context.Context, tx db.Tx, orders []*repository.Order) (int, error) {
	for i, order := range orders {
		if _, err := tx.Exec(ctx, insertOrderQuery, orderArgs(order)...); err != nil {
			return i, mapError(err)
		}
	}
	return len(orders), nil
}

func (r *OrderRepo) GetByOrderID(ctx context.Context, orderID string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, selectOrderQuery+" WHERE order_id = $1", orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, orderID, status string) error {
	tag, err := tx.Exec(ctx, "UPDATE orders SET order_status = $1 WHERE order_id = $2", status, orderID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, orderID string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM orders WHERE order_id = $1", orderID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

// ListByStatus returns at most limit orders; an empty status matches every order.
func (r *OrderRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*repository.Order, error) {
	query := selectOrderQuery
	args := []interface{}{}

	if status != "" {
		query += " WHERE order_status = $1"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, query, args...)
	return orders, err
}

func (r *OrderRepo) GetAllActiveOrders(ctx context.Context) ([]*repository.Order, error) {
	query := selectOrderQuery + `
        WHERE order_status = 'processing' OR order_status = 'ready'
        ORDER BY created_at ASC`
	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all active orders: %w", err)
	}
	return orders, nil
}
