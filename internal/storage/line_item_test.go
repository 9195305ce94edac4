package storage

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItem_JSONRoundTrip(t *testing.T) {
	const product = `{"_id":"A","name":"Tea","image":"a.png","brand":"X","liftPrice":80,"salePrice":120,` +
		`"availableQty":10,"qty":25,"stockDate":"2024-02-01T00:00:00.000Z","quantity":3}`

	var item LineItem
	require.NoError(t, json.Unmarshal([]byte(product), &item))

	assert.Equal(t, "A", item.ProductID)
	assert.Equal(t, "Tea", item.Name)
	assert.True(t, decimal.NewFromInt(120).Equal(item.SalePrice))
	assert.Equal(t, 10, item.AvailableQty)
	assert.Equal(t, 3, item.Quantity)
	assert.Len(t, item.Extra, 5)

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, product, string(raw))
}

func TestLineItem_UnmarshalNumericStrings(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      LineItem
		wantError string
	}{
		{
			name:  "numeric strings",
			input: `{"_id":"A","salePrice":"99.50","availableQty":"10","quantity":" 2 "}`,
			want:  LineItem{ProductID: "A", SalePrice: decimal.RequireFromString("99.50"), AvailableQty: 10, Quantity: 2},
		},
		{
			name:  "empty and null are zero",
			input: `{"_id":"A","salePrice":null,"availableQty":"","quantity":null}`,
			want:  LineItem{ProductID: "A", SalePrice: decimal.Zero},
		},
		{
			name:      "fractional quantity",
			input:     `{"_id":"A","quantity":1.5}`,
			wantError: "quantity: not an integer",
		},
		{
			name:      "non numeric price",
			input:     `{"_id":"A","salePrice":"cheap"}`,
			wantError: "salePrice",
		},
		{
			name:      "not an object",
			input:     `"A"`,
			wantError: "cannot unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item LineItem
			err := json.Unmarshal([]byte(tt.input), &item)
			if tt.wantError != "" {
				assert.ErrorContains(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.ProductID, item.ProductID)
			assert.True(t, tt.want.SalePrice.Equal(item.SalePrice))
			assert.Equal(t, tt.want.AvailableQty, item.AvailableQty)
			assert.Equal(t, tt.want.Quantity, item.Quantity)
			assert.Nil(t, item.Extra)
		})
	}
}

func TestLineItem_MarshalSalePriceAsNumber(t *testing.T) {
	raw, err := json.Marshal([]LineItem{{ProductID: "p1", SalePrice: decimal.RequireFromString("10.555"), Quantity: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_id":"p1","salePrice":10.555,"availableQty":0,"quantity":1}]`, string(raw))
}
