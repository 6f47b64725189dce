package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/frappe-till/internal/model"
	"github.com/Veraticus/frappe-till/internal/pos"
)

func TestRenderCart(t *testing.T) {
	lines := []model.CartLine{
		{Item: model.CatalogItem{ID: "ITEM-1", DisplayName: "Coffee Beans"}, Quantity: 2, UnitPrice: 12.5},
		{Item: model.CatalogItem{ID: "LOOSE", DisplayName: "Loose Tea", UnitOfMeasure: "Kg"}, Quantity: 0.25, UnitPrice: 40},
	}

	out := RenderCart(lines, 35)
	assert.Contains(t, out, "Cart (2 lines)")
	assert.Contains(t, out, "Coffee Beans")
	assert.Contains(t, out, "0.25 Kg")
	assert.Contains(t, out, "25.00")
	assert.Contains(t, out, "TOTAL 35.00")
}

func TestRenderCartEmpty(t *testing.T) {
	assert.Contains(t, RenderCart(nil, 0), "Cart is empty")
}

func TestRenderScanResult(t *testing.T) {
	item := model.CatalogItem{ID: "ITEM-1", DisplayName: "Coffee Beans"}
	tests := []struct {
		name   string
		want   string
		result pos.ScanResult
	}{
		{"added", "Added Coffee Beans × 2.5 @ 12.50", pos.ScanResult{Status: pos.StatusAdded, Item: item, Quantity: 2.5, UnitPrice: 12.5, Source: "local"}},
		{"resolved", "Found Coffee Beans", pos.ScanResult{Status: pos.StatusResolved, Item: item, Quantity: 1, UnitPrice: 12.5}},
		{"not found", "No item for code 123", pos.ScanResult{Status: pos.StatusNotFound, Code: "123"}},
		{"unparseable", "map without record fields", pos.ScanResult{Status: pos.StatusUnparseable, Code: "123", Detail: "map without record fields"}},
		{"discarded", "Scan of 123 discarded", pos.ScanResult{Status: pos.StatusDiscarded, Code: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, RenderScanResult(tt.result), tt.want)
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "1", formatQuantity(1, ""))
	assert.Equal(t, "2.5 Kg", formatQuantity(2.5, "Kg"))
	assert.Equal(t, "0.12", formatQuantity(0.12, ""))
}

func TestSay(t *testing.T) {
	assert.Contains(t, Say(ToneOK, "saved"), "✓ saved")
	assert.Contains(t, Say(ToneWarn, "no item"), "? no item")
	assert.Contains(t, Say(ToneFault, "failed"), "✗ failed")
	assert.Contains(t, Say(Tone(99), "plain"), "· plain", "unknown tones fall back to a note")
}
