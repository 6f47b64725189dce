package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/frappe-till/internal/model"
)

// Field priority lists. The first field holding a usable value wins.
var (
	identityFields    = []string{"name", "item_code", "code"}
	displayNameFields = []string{"item_name", "item", "description"}
	priceFields       = []string{"rate", "standard_rate", "valuation_rate", "price"}
	imageFields       = []string{"image", "image_url", "thumbnail"}
	uomFields         = []string{"stock_uom", "uom"}

	// sellingPriceFields feed the local index's override map.
	sellingPriceFields = []string{"standard_rate", "price_list_rate", "selling_price"}
)

// ItemFromRow sanitizes a raw record into a CatalogItem. It reports false
// when neither an identity nor a display name can be found. A row with only
// a display name uses it as the identity.
func ItemFromRow(row model.RawRow) (model.CatalogItem, bool) {
	id := firstString(row, identityFields)
	display := firstString(row, displayNameFields)
	if id == "" && display == "" {
		return model.CatalogItem{}, false
	}
	if id == "" {
		id = display
	}

	item := model.CatalogItem{
		ID:            id,
		DisplayName:   display,
		ImageRef:      firstString(row, imageFields),
		UnitOfMeasure: firstString(row, uomFields),
	}
	if price, ok := firstNumber(row, priceFields); ok {
		item.UnitPrice = price
		item.HasUnitPrice = true
	}
	return item, true
}

// ParseNumber accepts JSON numbers, Go numeric types and numeric strings
// (thousands separators removed). Anything else is reported as absent.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func firstString(row model.RawRow, fields []string) string {
	for _, field := range fields {
		if s := stringValue(row[field]); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(row model.RawRow, fields []string) (float64, bool) {
	for _, field := range fields {
		if f, ok := ParseNumber(row[field]); ok {
			return f, true
		}
	}
	return 0, false
}

// stringValue renders identifiers that some backends send as numbers.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}
