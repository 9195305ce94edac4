// Package csvimport streams a delimited upload into header-keyed rows.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

var (
	ErrMissingHeader   = errors.New("missing header row")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrMissingColumn   = errors.New("missing required column")
	ErrInvalidEncoding = errors.New("invalid UTF-8")
)

const byteOrderMark = "\ufeff"

// Row is one data record. Index counts data rows from 1, the header excluded.
type Row struct {
	Index  int
	Line   int
	Fields map[string]string
}

func (r Row) Get(column string) string {
	return r.Fields[column]
}

// Has reports whether the column is present with a non-empty value.
func (r Row) Has(column string) bool {
	return r.Fields[column] != ""
}

// DecodeError is returned for a malformed header (Row 0) or data row.
type DecodeError struct {
	Row  int
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("decode header: %v", e.Err)
	}
	return fmt.Sprintf("decode row %d (line %d): %v", e.Row, e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type Decoder struct {
	r      *csv.Reader
	header []string
	index  int
	err    error
}

// NewDecoder reads the header row and checks it holds every required column.
// Header-only input is valid and decodes to zero rows.
func NewDecoder(r io.Reader, required ...string) (*Decoder, error) {
	cr := csv.NewReader(bufio.NewReader(r))

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{Row: 0, Line: 1, Err: ErrMissingHeader}
		}
		return nil, &DecodeError{Row: 0, Line: 1, Err: err}
	}

	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		if !utf8.ValidString(name) {
			return nil, &DecodeError{Row: 0, Line: 1, Err: ErrInvalidEncoding}
		}
		if i == 0 {
			name = strings.TrimPrefix(name, byteOrderMark)
		}
		name = strings.TrimSpace(name)
		if _, dup := seen[name]; dup {
			return nil, &DecodeError{Row: 0, Line: 1, Err: fmt.Errorf("%w: %q", ErrDuplicateColumn, name)}
		}
		seen[name] = struct{}{}
		header[i] = name
	}

	for _, name := range required {
		if _, ok := seen[name]; !ok {
			return nil, &DecodeError{Row: 0, Line: 1, Err: fmt.Errorf("%w: %q", ErrMissingColumn, name)}
		}
	}

	// Every data row must have exactly as many fields as the header.
	cr.FieldsPerRecord = len(header)

	return &Decoder{r: cr, header: header}, nil
}

// Header returns the normalized column names in file order.
func (d *Decoder) Header() []string {
	out := make([]string, len(d.header))
	copy(out, d.header)
	return out
}

// Next returns the next row, or io.EOF once the input is exhausted.
// After a DecodeError every later call returns the same error.
func (d *Decoder) Next() (Row, error) {
	if d.err != nil {
		return Row{}, d.err
	}

	record, err := d.r.Read()
	if errors.Is(err, io.EOF) {
		d.err = io.EOF
		return Row{}, io.EOF
	}

	d.index++

	if err != nil {
		line := 0
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			line = parseErr.StartLine
			err = parseErr.Err
		}
		d.err = &DecodeError{Row: d.index, Line: line, Err: err}
		return Row{}, d.err
	}

	line, _ := d.r.FieldPos(0)

	fields := make(map[string]string, len(record))
	for i, value := range record {
		if !utf8.ValidString(value) {
			d.err = &DecodeError{Row: d.index, Line: line, Err: fmt.Errorf("%w in column %q", ErrInvalidEncoding, d.header[i])}
			return Row{}, d.err
		}
		fields[d.header[i]] = value
	}

	return Row{Index: d.index, Line: line, Fields: fields}, nil
}

// All yields rows in file order and stops after the first error.
func (d *Decoder) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}
