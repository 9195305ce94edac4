package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	StatusReturned   Status = "returned"
	StatusCancelled  Status = "cancelled"
)

var statuses = []Status{StatusProcessing, StatusReady, StatusCompleted, StatusReturned, StatusCancelled}

// Statuses lists every valid order status in workflow order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func ParseStatus(s string) (Status, error) {
	for _, st := range statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Active reports whether the order is still being fulfilled.
func (s Status) Active() bool {
	return s == StatusProcessing || s == StatusReady
}

// LineItem is one product entry of an order's products array. Keys other than
// the typed ones are kept in Extra and written back unchanged.
type LineItem struct {
	ProductID    string
	Name         string
	SalePrice    decimal.Decimal
	AvailableQty int
	Quantity     int
	Extra        map[string]json.RawMessage
}

type Order struct {
	OrderID        string          `json:"orderId"`
	Image          string          `json:"image"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	District       string          `json:"district"`
	Products       []LineItem      `json:"products"`
	Quantity       int             `json:"quantity"`
	Courier        string          `json:"courier"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	Advance        decimal.Decimal `json:"advance"`
	Cash           decimal.Decimal `json:"cash"`
	Instruction    string          `json:"instruction"`
	OrderStatus    Status          `json:"orderStatus"`
	Timestamp      time.Time       `json:"timestamp"`
}

type Product struct {
	ID           string          `json:"_id"`
	Image        string          `json:"image"`
	Name         string          `json:"name"`
	AvailableQty int             `json:"availableQty"`
	Qty          int             `json:"qty"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	StockDate    time.Time       `json:"stockDate"`
}

type HistoryEntry struct {
	OrderID   string    `json:"orderId"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
}

const (
	EventOrderCreated       = "order.created"
	EventOrdersImported     = "orders.imported"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload written to the outbox and published to Kafka.
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderIDs  []string  `json:"order_ids"`
	Status    Status    `json:"status,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func (e OrderEvent) Marshal() (json.RawMessage, error) {
	return json.Marshal(e)
}
