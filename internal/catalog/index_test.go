package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Veraticus/frappe-till/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogRows() []model.RawRow {
	return []model.RawRow{
		{
			"name":          "ITEM-1",
			"item_name":     "Widget",
			"standard_rate": "12.50",
			"barcodes": []any{
				map[string]any{"barcode": "000123", "barcode_type": "EAN"},
				map[string]any{"item_barcode": "4006381333931"},
				"not a child row",
			},
		},
		{
			"name":      "ITEM-2",
			"item_name": "Gadget",
			"ean":       "5449000000996",
			"rate":      3.0,
		},
		{
			"item_code":     "ITEM-3",
			"default_code":  "G-77",
			"standard_rate": 0.0,
		},
		{
			"barcode": "999",
		},
	}
}

func TestBuildIndex(t *testing.T) {
	idx := BuildIndex(catalogRows())

	t.Run("child table barcodes register every variant", func(t *testing.T) {
		for _, code := range []string{"000123", "123", "00000123", "000000000123", "0000000000123", "4006381333931"} {
			item, ok := idx.Lookup(code)
			require.True(t, ok, code)
			assert.Equal(t, "ITEM-1", item.ID)
		}
	})

	t.Run("scalar code fields", func(t *testing.T) {
		item, ok := idx.Lookup("5449000000996")
		require.True(t, ok)
		assert.Equal(t, "ITEM-2", item.ID)

		item, ok = idx.Lookup("G-77")
		require.True(t, ok)
		assert.Equal(t, "ITEM-3", item.ID)
	})

	t.Run("item ids are not codes", func(t *testing.T) {
		_, ok := idx.Lookup("ITEM-2")
		assert.False(t, ok)
	})

	t.Run("override prices only when positive", func(t *testing.T) {
		p, ok := idx.OverridePrice("ITEM-1")
		require.True(t, ok)
		assert.InDelta(t, 12.5, p, 1e-9)

		_, ok = idx.OverridePrice("ITEM-2")
		assert.False(t, ok, "rate is not a selling price field")

		_, ok = idx.OverridePrice("ITEM-3")
		assert.False(t, ok, "zero price is not an override")
	})

	t.Run("unsanitizable rows are skipped", func(t *testing.T) {
		stats := idx.Stats()
		assert.Equal(t, 3, stats.Items)
		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, 1, stats.Prices)
		_, ok := idx.Lookup("999")
		assert.False(t, ok)
	})

	t.Run("items keep catalog order", func(t *testing.T) {
		items := idx.Items()
		require.Len(t, items, 3)
		assert.Equal(t, []string{"ITEM-1", "ITEM-2", "ITEM-3"}, []string{items[0].ID, items[1].ID, items[2].ID})
	})
}

func TestBuildIndex_FirstRowKeepsSharedCode(t *testing.T) {
	idx := BuildIndex([]model.RawRow{
		{"name": "A", "barcode": "777"},
		{"name": "B", "barcode": "777"},
	})
	item, ok := idx.Lookup("777")
	require.True(t, ok)
	assert.Equal(t, "A", item.ID)
}

func TestBuildIndex_ExactCodeBeatsEarlierVariant(t *testing.T) {
	idx := BuildIndex([]model.RawRow{
		{"name": "SHORT", "barcodes": []any{map[string]any{"barcode": "123"}}},
		{"name": "EAN8", "barcodes": []any{map[string]any{"barcode": "00000123"}}},
	})

	item, ok := idx.Lookup("00000123")
	require.True(t, ok)
	assert.Equal(t, "EAN8", item.ID)

	item, ok = idx.Lookup("123")
	require.True(t, ok)
	assert.Equal(t, "SHORT", item.ID)

	// Padded forms not printed on either label go to the earlier row.
	item, ok = idx.Lookup("000000000123")
	require.True(t, ok)
	assert.Equal(t, "SHORT", item.ID)
}

func TestStore_ResolvesExactOwnerBeforeVariant(t *testing.T) {
	store := NewStore(nil)
	store.Replace([]model.RawRow{
		{"name": "SHORT", "barcodes": []any{map[string]any{"barcode": "123"}}},
		{"name": "EAN8", "barcodes": []any{map[string]any{"barcode": "00000123"}}},
	})

	resolver, err := NewResolver(store, nil, DefaultConfig(), nil)
	require.NoError(t, err)

	res, err := resolver.Resolve(context.Background(), "00000123")
	require.NoError(t, err)
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, "EAN8", res.Item.ID)
	assert.Equal(t, "00000123", res.Variant)
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	_, ok := idx.Lookup("1")
	assert.False(t, ok)
	_, ok = idx.OverridePrice("1")
	assert.False(t, ok)
	assert.Nil(t, idx.Items())
	assert.Equal(t, Stats{}, idx.Stats())
}

type staticSource struct {
	err  error
	rows []model.RawRow
}

func (s *staticSource) FetchCatalog(_ context.Context) ([]model.RawRow, error) {
	return s.rows, s.err
}

func TestStore_RefreshDropsStaleCodes(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	_, err := store.Refresh(ctx, &staticSource{rows: catalogRows()})
	require.NoError(t, err)
	_, ok := store.Lookup("5449000000996")
	require.True(t, ok)

	_, err = store.Refresh(ctx, &staticSource{rows: catalogRows()[:1]})
	require.NoError(t, err)

	_, ok = store.Lookup("5449000000996")
	assert.False(t, ok, "removed item must not survive a rebuild")
	_, ok = store.Lookup("000123")
	assert.True(t, ok)
}

func TestStore_RefreshFailureKeepsIndex(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	_, err := store.Refresh(ctx, &staticSource{rows: catalogRows()})
	require.NoError(t, err)

	_, err = store.Refresh(ctx, &staticSource{err: errors.New("boom")})
	require.Error(t, err)

	_, ok := store.Lookup("000123")
	assert.True(t, ok)
}

func TestStore_ConcurrentReplaceAndLookup(t *testing.T) {
	store := NewStore(nil)
	full := catalogRows()
	partial := full[:1]

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				store.Replace(full)
			} else {
				store.Replace(partial)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			idx := store.Current()
			// A single snapshot is internally consistent.
			if _, ok := idx.Lookup("5449000000996"); ok {
				_, ok := idx.Lookup("G-77")
				assert.True(t, ok)
			}
		}
	}()
	wg.Wait()
}
