package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veraticus/frappe-till/internal/barcode"
	"github.com/Veraticus/frappe-till/internal/model"
)

var (
	// childBarcodeFields are looked up inside child-table rows.
	childBarcodeFields = []string{"barcode", "item_barcode", "barcode_value", "barcode_id"}
	// scalarBarcodeFields are looked up on the item row itself.
	scalarBarcodeFields = []string{"default_code", "ean", "upc", "barcode"}
)

// Index is an immutable barcode-variant to item map built from one catalog
// fetch, plus per-item selling price overrides.
type Index struct {
	byCode  map[string]model.CatalogItem
	prices  map[string]float64
	items   []model.CatalogItem
	skipped int
}

// BuildIndex builds an index from raw catalog rows. Rows that cannot be
// sanitized into an item are counted and skipped. A code as printed on a
// row always wins over a padded or stripped variant of another row's code;
// among equals, the earlier row keeps it.
func BuildIndex(rows []model.RawRow) *Index {
	idx := &Index{
		byCode: make(map[string]model.CatalogItem),
		prices: make(map[string]float64),
		items:  make([]model.CatalogItem, 0, len(rows)),
	}

	type indexed struct {
		item  model.CatalogItem
		codes []string
	}
	entries := make([]indexed, 0, len(rows))

	for _, row := range rows {
		item, ok := ItemFromRow(row)
		if !ok {
			idx.skipped++
			continue
		}
		idx.items = append(idx.items, item)

		if price, ok := firstNumber(row, sellingPriceFields); ok && price > 0 {
			idx.prices[item.ID] = price
		}

		entries = append(entries, indexed{item: item, codes: barcodeCandidates(row)})
	}

	// Exact codes first, derived variants only fill the gaps.
	for _, e := range entries {
		for _, code := range e.codes {
			idx.claim(strings.TrimSpace(code), e.item)
		}
	}
	for _, e := range entries {
		for _, code := range e.codes {
			for _, v := range barcode.Variants(code) {
				idx.claim(v, e.item)
			}
		}
	}

	return idx
}

func (idx *Index) claim(code string, item model.CatalogItem) {
	if code == "" {
		return
	}
	if _, taken := idx.byCode[code]; !taken {
		idx.byCode[code] = item
	}
}

// barcodeCandidates collects non-empty code values from child tables and
// the row's scalar code fields.
func barcodeCandidates(row model.RawRow) []string {
	var codes []string
	for _, value := range row {
		children, ok := value.([]any)
		if !ok {
			continue
		}
		for _, child := range children {
			m, ok := child.(map[string]any)
			if !ok {
				continue
			}
			for _, f := range childBarcodeFields {
				if s := stringValue(m[f]); s != "" {
					codes = append(codes, s)
				}
			}
		}
	}
	for _, f := range scalarBarcodeFields {
		if s := stringValue(row[f]); s != "" {
			codes = append(codes, s)
		}
	}
	return codes
}

// Lookup returns the item registered under an exact code variant.
func (idx *Index) Lookup(code string) (model.CatalogItem, bool) {
	if idx == nil {
		return model.CatalogItem{}, false
	}
	item, ok := idx.byCode[code]
	return item, ok
}

// OverridePrice returns the selling price recorded for an item, if positive.
func (idx *Index) OverridePrice(itemID string) (float64, bool) {
	if idx == nil {
		return 0, false
	}
	p, ok := idx.prices[itemID]
	return p, ok
}

// Items returns the indexed items in catalog order.
func (idx *Index) Items() []model.CatalogItem {
	if idx == nil {
		return nil
	}
	out := make([]model.CatalogItem, len(idx.items))
	copy(out, idx.items)
	return out
}

// Stats summarizes an index for logging and CLI output.
type Stats struct {
	Items   int
	Codes   int
	Prices  int
	Skipped int
}

// Stats reports the size of the index.
func (idx *Index) Stats() Stats {
	if idx == nil {
		return Stats{}
	}
	return Stats{
		Items:   len(idx.items),
		Codes:   len(idx.byCode),
		Prices:  len(idx.prices),
		Skipped: idx.skipped,
	}
}

// Source supplies raw catalog rows.
type Source interface {
	FetchCatalog(ctx context.Context) ([]model.RawRow, error)
}

// Store holds the current Index. Replacing it is atomic with respect to
// readers: a lookup sees either the old index or the new one, never a mix.
type Store struct {
	logger *slog.Logger
	index  *Index
	mu     sync.RWMutex
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Current returns the active index, which may be nil before the first load.
func (s *Store) Current() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Replace builds a new index from rows and swaps it in.
func (s *Store) Replace(rows []model.RawRow) Stats {
	idx := BuildIndex(rows)

	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()

	stats := idx.Stats()
	s.logger.Info("catalog index rebuilt",
		"items", stats.Items,
		"codes", stats.Codes,
		"prices", stats.Prices,
		"skipped", stats.Skipped)
	return stats
}

// Refresh fetches the catalog from src and replaces the index. On failure
// the previous index stays active.
func (s *Store) Refresh(ctx context.Context, src Source) (Stats, error) {
	rows, err := src.FetchCatalog(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	return s.Replace(rows), nil
}

// Lookup checks the active index with an exact code variant.
func (s *Store) Lookup(code string) (model.CatalogItem, bool) {
	return s.Current().Lookup(code)
}

// OverridePrice returns the selling price override from the active index.
func (s *Store) OverridePrice(itemID string) (float64, bool) {
	return s.Current().OverridePrice(itemID)
}
