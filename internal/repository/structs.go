package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrObjectNotFound = errors.New("not found")
	ErrDuplicateKey   = errors.New("duplicate key")
)

type Order struct {
	ID             int64           `db:"id"`
	OrderID        string          `db:"order_id"`
	Image          string          `db:"image"`
	Name           string          `db:"name"`
	Phone          string          `db:"phone"`
	Address        string          `db:"address"`
	District       string          `db:"district"`
	Products       json.RawMessage `db:"products"`
	Quantity       int             `db:"quantity"`
	Courier        string          `db:"courier"`
	DeliveryCharge decimal.Decimal `db:"delivery_charge"`
	Discount       decimal.Decimal `db:"discount"`
	Total          decimal.Decimal `db:"total"`
	Advance        decimal.Decimal `db:"advance"`
	Cash           decimal.Decimal `db:"cash"`
	Instruction    string          `db:"instruction"`
	OrderStatus    string          `db:"order_status"`
	CreatedAt      time.Time       `db:"created_at"`
}

type Product struct {
	ID           string          `db:"id"`
	Image        string          `db:"image"`
	Name         string          `db:"name"`
	AvailableQty int             `db:"available_qty"`
	Qty          int             `db:"qty"`
	SalePrice    decimal.Decimal `db:"sale_price"`
	StockDate    time.Time       `db:"stock_date"`
}

type HistoryEntry struct {
	ID        int64     `db:"id"`
	OrderID   string    `db:"order_id"`
	Status    string    `db:"status"`
	ChangedAt time.Time `db:"changed_at"`
}
