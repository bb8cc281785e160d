package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation is returned when a required field is missing or a value is out of range.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateSKU is returned when a caller-supplied SKU is already in the catalog.
	ErrDuplicateSKU = errors.New("sku already exists")

	// ErrNotFound is returned when an operation names a SKU that is not in the catalog.
	ErrNotFound = errors.New("product not found")

	// ErrQuantityExceedsStock is returned when a bound line asks for more than the product stock.
	ErrQuantityExceedsStock = errors.New("quantity exceeds available stock")

	// ErrGenerationExhausted is returned when no free SKU was found within the attempt bound.
	ErrGenerationExhausted = errors.New("sku generation exhausted")

	// ErrInsufficientStock is returned by the reject stock policy instead of clamping.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrSKUAlreadyBound is returned when a product is already bound to another line of the invoice.
	ErrSKUAlreadyBound = errors.New("sku already bound to another line")

	// ErrLineIndex is returned for a line index outside the invoice template.
	ErrLineIndex = errors.New("line index out of range")
)

// QuantityExceedsStockError carries the rejected request for display.
type QuantityExceedsStockError struct {
	SKU       string
	Requested decimal.Decimal
	Available int
}

func (e *QuantityExceedsStockError) Error() string {
	return fmt.Sprintf("quantity %s exceeds available stock %d for %s", e.Requested.String(), e.Available, e.SKU)
}

func (e *QuantityExceedsStockError) Unwrap() error {
	return ErrQuantityExceedsStock
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
