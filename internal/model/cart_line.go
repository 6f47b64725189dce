package model

import "github.com/shopspring/decimal"

// CartLine is one row of an active sale. UnitPrice is fixed when the line is
// created and never follows later catalog changes.
type CartLine struct {
	Item      CatalogItem
	Quantity  float64
	UnitPrice float64
}

// LineTotal returns UnitPrice * Quantity.
func (l CartLine) LineTotal() float64 {
	return l.lineTotal().InexactFloat64()
}

func (l CartLine) lineTotal() decimal.Decimal {
	return decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromFloat(l.Quantity))
}

// SumLines totals a set of cart lines using decimal arithmetic so that
// repeated float additions do not drift.
func SumLines(lines []CartLine) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.lineTotal())
	}
	return total.InexactFloat64()
}
