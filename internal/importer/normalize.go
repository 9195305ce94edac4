package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroom/inventory-portal/internal/csvimport"
	"github.com/stockroom/inventory-portal/internal/orderid"
	"github.com/stockroom/inventory-portal/internal/storage"
)

const (
	ColumnImage          = "image"
	ColumnName           = "name"
	ColumnPhone          = "phone"
	ColumnAddress        = "address"
	ColumnDistrict       = "district"
	ColumnProducts       = "products"
	ColumnQuantity       = "quantity"
	ColumnCourier        = "courier"
	ColumnDeliveryCharge = "deliveryCharge"
	ColumnDiscount       = "discount"
	ColumnTotal          = "total"
	ColumnAdvance        = "advance"
	ColumnCash           = "cash"
	ColumnInstruction    = "instruction"
	ColumnOrderStatus    = "orderStatus"
)

// RequiredColumns must be present in the header of every import file.
// image and orderStatus are optional.
var RequiredColumns = []string{
	ColumnName, ColumnPhone, ColumnAddress, ColumnDistrict, ColumnProducts, ColumnQuantity,
	ColumnCourier, ColumnDeliveryCharge, ColumnDiscount, ColumnTotal, ColumnAdvance, ColumnCash,
	ColumnInstruction,
}

const maxQuotedPayload = 80

type NormalizationError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *NormalizationError) Error() string {
	value := e.Value
	if len(value) > maxQuotedPayload {
		value = value[:maxQuotedPayload] + "..."
	}
	return fmt.Sprintf("normalize row %d: invalid %s %q: %v", e.Row, e.Field, value, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// Normalizer turns decoded rows into orders ready for persistence. It does no I/O.
type Normalizer struct {
	ids     orderid.Generator
	timeNow func() time.Time
}

func NewNormalizer(ids orderid.Generator) *Normalizer {
	return &Normalizer{ids: ids, timeNow: time.Now}
}

func (n *Normalizer) Normalize(row csvimport.Row) (storage.Order, error) {
	fail := func(field string, err error) (storage.Order, error) {
		return storage.Order{}, &NormalizationError{Row: row.Index, Field: field, Value: row.Get(field), Err: err}
	}

	var products []storage.LineItem
	if err := json.Unmarshal([]byte(row.Get(ColumnProducts)), &products); err != nil {
		return fail(ColumnProducts, err)
	}
	if products == nil {
		products = []storage.LineItem{}
	}

	quantity, err := parseInt(row.Get(ColumnQuantity))
	if err != nil {
		return fail(ColumnQuantity, err)
	}

	order := storage.Order{
		Image:       row.Get(ColumnImage),
		Name:        row.Get(ColumnName),
		Phone:       row.Get(ColumnPhone),
		Address:     row.Get(ColumnAddress),
		District:    row.Get(ColumnDistrict),
		Products:    products,
		Quantity:    quantity,
		Courier:     row.Get(ColumnCourier),
		Instruction: row.Get(ColumnInstruction),
	}

	amounts := []struct {
		column string
		dst    *decimal.Decimal
	}{
		{ColumnDeliveryCharge, &order.DeliveryCharge},
		{ColumnDiscount, &order.Discount},
		{ColumnTotal, &order.Total},
		{ColumnAdvance, &order.Advance},
		{ColumnCash, &order.Cash},
	}
	for _, amount := range amounts {
		value, err := parseDecimal(row.Get(amount.column))
		if err != nil {
			return fail(amount.column, err)
		}
		*amount.dst = value
	}

	order.OrderStatus = storage.StatusProcessing
	if raw := strings.TrimSpace(row.Get(ColumnOrderStatus)); raw != "" {
		status, err := storage.ParseStatus(raw)
		if err != nil {
			return fail(ColumnOrderStatus, err)
		}
		order.OrderStatus = status
	}

	order.OrderID = n.ids.Generate()
	order.Timestamp = n.timeNow().UTC()

	return order, nil
}

// Prepare stamps a directly submitted order with a fresh id, the processing
// status and the current time. Any client supplied values are replaced.
func (n *Normalizer) Prepare(order storage.Order) storage.Order {
	if order.Products == nil {
		order.Products = []storage.LineItem{}
	}
	order.OrderID = n.ids.Generate()
	order.OrderStatus = storage.StatusProcessing
	order.Timestamp = n.timeNow().UTC()
	return order
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
