package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/inventory-portal/internal/storage"
)

func TestWriteOrdersCSV(t *testing.T) {
	orders := []storage.Order{{
		OrderID:        "AbCdEfGhIj",
		Name:           "Rahim",
		Phone:          "01700000000",
		Address:        "House 4, Road 2",
		District:       "Dhaka",
		Products:       []storage.LineItem{{ProductID: "p1", SalePrice: decimal.NewFromInt(120), AvailableQty: 10, Quantity: 2}},
		Quantity:       2,
		Courier:        "pathao",
		DeliveryCharge: decimal.NewFromInt(60),
		Discount:       decimal.Zero,
		Total:          decimal.RequireFromString("300.50"),
		Advance:        decimal.Zero,
		Cash:           decimal.RequireFromString("300.50"),
		OrderStatus:    storage.StatusReady,
		Timestamp:      time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, orders))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, orderHeader, records[0])

	row := records[1]
	assert.Equal(t, "AbCdEfGhIj", row[0])
	assert.Equal(t, "House 4, Road 2", row[4])
	assert.JSONEq(t, `[{"_id":"p1","salePrice":120,"availableQty":10,"quantity":2}]`, row[6])
	assert.Equal(t, "300.5", row[11])
	assert.Equal(t, "ready", row[15], "the stored status is exported")
	assert.Equal(t, "Mar 1, 24", row[16])
}

func TestWriteProductsCSV(t *testing.T) {
	products := []storage.Product{
		{ID: "p1", Name: "Soap", AvailableQty: 7, Qty: 20, SalePrice: decimal.NewFromInt(120), StockDate: time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)},
		{ID: "p2", Name: "Oil", AvailableQty: -1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProductsCSV(&buf, products))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"p1", "", "Soap", "7", "20", "120", "Dec 25, 23"}, records[1])
	assert.Equal(t, []string{"p2", "", "Oil", "-1", "0", "0", ""}, records[2])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteOrdersCSV_WriterError(t *testing.T) {
	err := WriteOrdersCSV(failingWriter{}, nil)
	assert.ErrorContains(t, err, "broken pipe")
}
