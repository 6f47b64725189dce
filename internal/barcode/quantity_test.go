package barcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEmbeddedQuantity(t *testing.T) {
	tests := []struct {
		name string
		code string
		want float64
	}{
		{name: "empty", code: "", want: 0},
		{name: "short code", code: "123456789012", want: 0},
		{name: "thirteen digits", code: "2901234025001", want: 2.50},
		{name: "long code", code: "0000000025001234", want: 0.12},
		{name: "truncates instead of rounding", code: "2000000150099", want: 15.00},
		{name: "exact cents survive", code: "2900000002900", want: 0.29},
		{name: "separators ignored", code: "290-1234-025001", want: 2.50},
		{name: "zero tail means absent", code: "2901234000000", want: 0},
		{name: "below one cent means absent", code: "2901234000050", want: 0},
		{name: "letters only", code: "ABCDEFGHIJKLMN", want: 0},
		{name: "max tail", code: "2901234999999", want: 99.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExtractEmbeddedQuantity(tt.code), 1e-9)
		})
	}
}

func TestExtractEmbeddedQuantity_ShortDigitStrings(t *testing.T) {
	for n := 0; n < MinQuantityCodeLength; n++ {
		code := strings.Repeat("7", n)
		assert.Zero(t, ExtractEmbeddedQuantity(code), "length %d", n)
	}
}

func TestQuantityOrDefault(t *testing.T) {
	assert.Equal(t, DefaultQuantity, QuantityOrDefault("40063813"))
	assert.Equal(t, DefaultQuantity, QuantityOrDefault("2901234000000"))
	assert.InDelta(t, 2.5, QuantityOrDefault("2901234025001"), 1e-9)
}
