// Package model defines the core domain types shared by the till packages.
package model

// RawRow is one record as decoded from the backend's JSON. Values keep their
// decoded types (string, json.Number, float64, bool, []any, map[string]any).
type RawRow map[string]any

// CatalogItem is a sellable record resolved from the backend. Identity is ID;
// two items with the same ID are the same item for cart purposes.
type CatalogItem struct {
	ID            string
	DisplayName   string
	ImageRef      string
	UnitOfMeasure string
	UnitPrice     float64
	HasUnitPrice  bool
}

// Name returns the display name, falling back to the ID.
func (i CatalogItem) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.ID
}

// DefaultPrice returns the item's own price, or zero when none was resolved.
func (i CatalogItem) DefaultPrice() float64 {
	if i.HasUnitPrice {
		return i.UnitPrice
	}
	return 0
}
