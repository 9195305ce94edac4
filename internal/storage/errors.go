package storage

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateOrderID = errors.New("duplicate order id")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrInvalidLineItems = errors.New("invalid line items")
)

// BulkInsertError describes a failed insertMany. Index is the position of the
// order that the store rejected, or -1 when the failure was not tied to a row
// (for example a failed commit).
type BulkInsertError struct {
	Index    int
	Inserted int
	Failed   int
	Err      error
}

func (e *BulkInsertError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("bulk insert failed: inserted %d, failed %d: %v", e.Inserted, e.Failed, e.Err)
	}
	return fmt.Sprintf("bulk insert failed at order %d: inserted %d, failed %d: %v", e.Index+1, e.Inserted, e.Failed, e.Err)
}

func (e *BulkInsertError) Unwrap() error {
	return e.Err
}
