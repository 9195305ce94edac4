package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	lineItemKeyID           = "_id"
	lineItemKeyName         = "name"
	lineItemKeySalePrice    = "salePrice"
	lineItemKeyAvailableQty = "availableQty"
	lineItemKeyQuantity     = "quantity"
)

// MarshalJSON writes salePrice as a JSON number and merges Extra back in.
func (li LineItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(li.Extra)+5)
	for k, v := range li.Extra {
		out[k] = v
	}

	id, err := json.Marshal(li.ProductID)
	if err != nil {
		return nil, err
	}
	out[lineItemKeyID] = id
	if li.Name != "" {
		name, err := json.Marshal(li.Name)
		if err != nil {
			return nil, err
		}
		out[lineItemKeyName] = name
	}
	out[lineItemKeySalePrice] = json.RawMessage(li.SalePrice.String())
	out[lineItemKeyAvailableQty] = json.RawMessage(strconv.Itoa(li.AvailableQty))
	out[lineItemKeyQuantity] = json.RawMessage(strconv.Itoa(li.Quantity))

	return json.Marshal(out)
}

// UnmarshalJSON accepts numbers or numeric strings for salePrice, availableQty
// and quantity. Unknown keys land in Extra.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var item LineItem
	if raw, ok := fields[lineItemKeyID]; ok {
		if err := json.Unmarshal(raw, &item.ProductID); err != nil {
			return fmt.Errorf("%s: %w", lineItemKeyID, err)
		}
		delete(fields, lineItemKeyID)
	}
	if raw, ok := fields[lineItemKeyName]; ok {
		if err := json.Unmarshal(raw, &item.Name); err != nil {
			return fmt.Errorf("%s: %w", lineItemKeyName, err)
		}
		delete(fields, lineItemKeyName)
	}
	if raw, ok := fields[lineItemKeySalePrice]; ok {
		price, err := decodeJSONDecimal(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", lineItemKeySalePrice, err)
		}
		item.SalePrice = price
		delete(fields, lineItemKeySalePrice)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{lineItemKeyAvailableQty, &item.AvailableQty},
		{lineItemKeyQuantity, &item.Quantity},
	}
	for _, f := range ints {
		raw, ok := fields[f.key]
		if !ok {
			continue
		}
		n, err := decodeJSONInt(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
		delete(fields, f.key)
	}

	if len(fields) > 0 {
		item.Extra = fields
	}
	*li = item
	return nil
}

// unquoteNumeric returns the number text of a JSON number or numeric string.
// null and "" yield "".
func unquoteNumeric(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(raw), nil
}

func decodeJSONDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	s, err := unquoteNumeric(raw)
	if err != nil || s == "" {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

func decodeJSONInt(raw json.RawMessage) (int, error) {
	s, err := unquoteNumeric(raw)
	if err != nil || s == "" {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}
