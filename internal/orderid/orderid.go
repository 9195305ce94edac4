// Package orderid generates the short public identifiers printed on orders.
package orderid

import (
	"github.com/lithammer/shortuuid/v4"
)

// Length is the number of characters in every generated id.
const Length = 10

type Generator interface {
	Generate() string
}

// ShortUUID encodes a random UUIDv4 in base57 and keeps the first Length characters.
// It never consults the order store, so uniqueness is probabilistic.
type ShortUUID struct{}

func NewGenerator() ShortUUID {
	return ShortUUID{}
}

func (ShortUUID) Generate() string {
	return shortuuid.New()[:Length]
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() string

func (f GeneratorFunc) Generate() string {
	return f()
}
