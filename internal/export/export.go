// Package export flattens orders and products into CSV downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/stockroom/inventory-portal/internal/storage"
)

const (
	OrdersFilename   = "order_list.csv"
	ProductsFilename = "product_list.csv"

	dateLayout = "Jan 2, 06"
)

var orderHeader = []string{
	"orderId", "image", "name", "phone", "address", "district", "products", "quantity", "courier",
	"deliveryCharge", "discount", "total", "advance", "cash", "instruction", "orderStatus", "timestamp",
}

var productHeader = []string{"_id", "image", "name", "availableQty", "qty", "salePrice", "stockDate"}

func WriteOrdersCSV(w io.Writer, orders []storage.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeader); err != nil {
		return err
	}

	for _, o := range orders {
		products, err := json.Marshal(o.Products)
		if err != nil {
			return fmt.Errorf("failed to encode products of order %s: %w", o.OrderID, err)
		}
		record := []string{
			o.OrderID,
			o.Image,
			o.Name,
			o.Phone,
			o.Address,
			o.District,
			string(products),
			strconv.Itoa(o.Quantity),
			o.Courier,
			o.DeliveryCharge.String(),
			o.Discount.String(),
			o.Total.String(),
			o.Advance.String(),
			o.Cash.String(),
			o.Instruction,
			string(o.OrderStatus),
			formatDate(o.Timestamp),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteProductsCSV(w io.Writer, products []storage.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(productHeader); err != nil {
		return err
	}

	for _, p := range products {
		record := []string{
			p.ID,
			p.Image,
			p.Name,
			strconv.Itoa(p.AvailableQty),
			strconv.Itoa(p.Qty),
			p.SalePrice.String(),
			formatDate(p.StockDate),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
