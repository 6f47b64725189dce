package testutil

import (
	"strconv"

	"github.com/Veraticus/frappe-till/internal/model"
)

// RowBuilder assembles item records shaped like Frappe's Item doctype.
type RowBuilder struct {
	row model.RawRow
}

// NewRow starts a record with the given item name.
func NewRow(name string) *RowBuilder {
	return &RowBuilder{row: model.RawRow{"name": name}}
}

// Named sets the display name.
func (b *RowBuilder) Named(display string) *RowBuilder {
	b.row["item_name"] = display
	return b
}

// Priced sets the standard selling rate.
func (b *RowBuilder) Priced(rate float64) *RowBuilder {
	b.row["standard_rate"] = strconv.FormatFloat(rate, 'f', -1, 64)
	return b
}

// WithUOM sets the stock unit of measure.
func (b *RowBuilder) WithUOM(uom string) *RowBuilder {
	b.row["stock_uom"] = uom
	return b
}

// WithBarcode appends a row to the barcodes child table.
func (b *RowBuilder) WithBarcode(code string) *RowBuilder {
	list, _ := b.row["barcodes"].([]any)
	b.row["barcodes"] = append(list, map[string]any{"barcode": code})
	return b
}

// With sets an arbitrary field.
func (b *RowBuilder) With(field string, value any) *RowBuilder {
	b.row[field] = value
	return b
}

// Build returns the record.
func (b *RowBuilder) Build() model.RawRow {
	return b.row
}

// SampleCatalog is a small catalog covering child-table barcodes, scalar
// codes, a weighed item whose label embeds 0.25 and a record without
// identity.
func SampleCatalog() []model.RawRow {
	return []model.RawRow{
		NewRow("ITEM-1").Named("Coffee Beans").Priced(12.5).WithUOM("Nos").WithBarcode("012345678905").Build(),
		NewRow("ITEM-2").Named("Cola").With("ean", "54490009").With("rate", 3).Build(),
		NewRow("LOOSE").Named("Loose Tea").Priced(40).WithUOM("Kg").WithBarcode("2900000002500").Build(),
		{"barcode": "999"},
	}
}
