package postgresql

import (
	"context"

	"github.com/stockroom/inventory-portal/internal/db"
	"github.com/stockroom/inventory-portal/internal/repository"
	"github.com/stockroom/inventory-portal/internal/storage"
)

const selectProductQuery = `
    SELECT id, image, name, available_qty, qty, sale_price, stock_date FROM products`

type ProductRepo struct {
	db db.DB
}

func NewProductRepo(db db.DB) storage.ProductRepository {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*repository.Product, error) {
	var product repository.Product
	if err := r.db.Get(ctx, &product, selectProductQuery+" WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &product, nil
}

func (r *ProductRepo) UpdateAvailableQty(ctx context.Context, id string, availableQty int) error {
	tag, err := r.db.Exec(ctx, "UPDATE products SET available_qty = $1 WHERE id = $2", availableQty, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *ProductRepo) List(ctx context.Context) ([]*repository.Product, error) {
	var products []*repository.Product
	err := r.db.Select(ctx, &products, selectProductQuery+" ORDER BY stock_date DESC")
	return products, err
}
