package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/frappe-till/internal/model"
	"github.com/Veraticus/frappe-till/internal/pos"
)

// RenderCart formats the cart lines and total as a receipt box.
func RenderCart(lines []model.CartLine, total float64) string {
	if len(lines) == 0 {
		return MutedStyle.Render("Cart is empty")
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tNAME\tQTY\tPRICE\tAMOUNT")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\n",
			l.Item.ID, l.Item.Name(), formatQuantity(l.Quantity, l.Item.UnitOfMeasure), l.UnitPrice, l.LineTotal())
	}
	_ = w.Flush()

	body := strings.TrimRight(b.String(), "\n") + "\n\n" + TotalStyle.Render(fmt.Sprintf("TOTAL %.2f", total))
	return receipt(fmt.Sprintf("Cart (%d lines)", len(lines)), body)
}

// RenderScanResult formats the outcome of one scan.
func RenderScanResult(r pos.ScanResult) string {
	switch r.Status {
	case pos.StatusAdded, pos.StatusResolved:
		verb := "Added"
		if r.Status == pos.StatusResolved {
			verb = "Found"
		}
		return Say(ToneOK, fmt.Sprintf("%s %s × %s @ %.2f", verb, r.Item.Name(),
			formatQuantity(r.Quantity, r.Item.UnitOfMeasure), r.UnitPrice)) +
			MutedStyle.Render(fmt.Sprintf("  [%s]", r.Source))
	case pos.StatusNotFound:
		return Say(ToneWarn, fmt.Sprintf("No item for code %s", r.Code))
	case pos.StatusUnparseable:
		msg := fmt.Sprintf("Could not read backend answer for %s", r.Code)
		if r.Detail != "" {
			msg += ": " + r.Detail
		}
		return Say(ToneFault, msg)
	case pos.StatusDiscarded:
		return Say(ToneNote, fmt.Sprintf("Scan of %s discarded", r.Code))
	default:
		return Say(ToneNote, string(r.Status))
	}
}

func formatQuantity(q float64, uom string) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
	if uom != "" {
		s += " " + uom
	}
	return s
}
