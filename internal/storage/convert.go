package storage

import (
	"encoding/json"
	"fmt"

	"github.com/stockroom/inventory-portal/internal/repository"
)

func toRepoOrder(order Order) (*repository.Order, error) {
	products := order.Products
	if products == nil {
		products = []LineItem{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("%w: order %s: %v", ErrInvalidLineItems, order.OrderID, err)
	}

	return &repository.Order{
		OrderID:        order.OrderID,
		Image:          order.Image,
		Name:           order.Name,
		Phone:          order.Phone,
		Address:        order.Address,
		District:       order.District,
		Products:       raw,
		Quantity:       order.Quantity,
		Courier:        order.Courier,
		DeliveryCharge: order.DeliveryCharge,
		Discount:       order.Discount,
		Total:          order.Total,
		Advance:        order.Advance,
		Cash:           order.Cash,
		Instruction:    order.Instruction,
		OrderStatus:    string(order.OrderStatus),
		CreatedAt:      order.Timestamp.UTC(),
	}, nil
}

func fromRepoOrder(r *repository.Order) (Order, error) {
	var products []LineItem
	if len(r.Products) > 0 {
		if err := json.Unmarshal(r.Products, &products); err != nil {
			return Order{}, fmt.Errorf("%w: order %s: %v", ErrInvalidLineItems, r.OrderID, err)
		}
	}

	return Order{
		OrderID:        r.OrderID,
		Image:          r.Image,
		Name:           r.Name,
		Phone:          r.Phone,
		Address:        r.Address,
		District:       r.District,
		Products:       products,
		Quantity:       r.Quantity,
		Courier:        r.Courier,
		DeliveryCharge: r.DeliveryCharge,
		Discount:       r.Discount,
		Total:          r.Total,
		Advance:        r.Advance,
		Cash:           r.Cash,
		Instruction:    r.Instruction,
		OrderStatus:    Status(r.OrderStatus),
		Timestamp:      r.CreatedAt.UTC(),
	}, nil
}

func fromRepoOrders(repoOrders []*repository.Order) ([]Order, error) {
	orders := make([]Order, 0, len(repoOrders))
	for _, r := range repoOrders {
		order, err := fromRepoOrder(r)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func fromRepoProduct(r *repository.Product) Product {
	return Product{
		ID:           r.ID,
		Image:        r.Image,
		Name:         r.Name,
		AvailableQty: r.AvailableQty,
		Qty:          r.Qty,
		SalePrice:    r.SalePrice,
		StockDate:    r.StockDate.UTC(),
	}
}
