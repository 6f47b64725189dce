// Package barcode decodes scanned codes: embedded quantities and the
// normalized variants used for catalog lookups.
package barcode

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	// MinQuantityCodeLength is the shortest digit string that can carry an
	// embedded quantity.
	MinQuantityCodeLength = 13

	quantityDigits = 6
	quantityScale  = 4 // n / 10000
	quantityPlaces = 2
)

// DefaultQuantity is applied when a code carries no embedded quantity.
const DefaultQuantity = 1.0

// ExtractEmbeddedQuantity returns the quantity encoded in the trailing six
// digits of a weighed-goods code, truncated (never rounded) to two decimal
// places. Zero means the code carries no quantity.
func ExtractEmbeddedQuantity(code string) float64 {
	digits := DigitsOnly(code)
	if len(digits) < MinQuantityCodeLength {
		return 0
	}

	n, err := strconv.ParseInt(digits[len(digits)-quantityDigits:], 10, 64)
	if err != nil || n <= 0 {
		return 0
	}

	// Exact decimal arithmetic: float64 floor(q*100) drops a cent on values
	// like 0.29.
	q := decimal.New(n, -quantityScale).Truncate(quantityPlaces)
	if !q.IsPositive() {
		return 0
	}
	return q.InexactFloat64()
}

// QuantityOrDefault returns the embedded quantity, or DefaultQuantity when
// the code has none.
func QuantityOrDefault(code string) float64 {
	if q := ExtractEmbeddedQuantity(code); q > 0 {
		return q
	}
	return DefaultQuantity
}
