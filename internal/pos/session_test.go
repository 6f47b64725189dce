package pos

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/frappe-till/internal/catalog"
	"github.com/Veraticus/frappe-till/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	err   error
	res   catalog.Resolution
	hook  func()
	codes []string
}

func (s *stubResolver) Resolve(_ context.Context, code string) (catalog.Resolution, error) {
	s.codes = append(s.codes, code)
	if s.hook != nil {
		s.hook()
	}
	return s.res, s.err
}

type priceMap map[string]float64

func (p priceMap) OverridePrice(id string) (float64, bool) {
	v, ok := p[id]
	return v, ok
}

func found(item model.CatalogItem) catalog.Resolution {
	return catalog.Resolution{Status: catalog.StatusFound, Item: item, Source: "local"}
}

func TestSession_ScanAddsDefaultQuantity(t *testing.T) {
	item := model.CatalogItem{ID: "ITEM-1", DisplayName: "Widget", UnitPrice: 12.5, HasUnitPrice: true}
	s := NewSession(&stubResolver{res: found(item)}, nil, nil)

	res, err := s.Scan(context.Background(), "4006381")
	require.NoError(t, err)
	assert.Equal(t, StatusAdded, res.Status)
	assert.InDelta(t, 1.0, res.Quantity, 1e-9)
	assert.InDelta(t, 12.5, res.UnitPrice, 1e-9)
	assert.Equal(t, "local", res.Source)
	assert.Equal(t, 1, s.Cart().Count())
}

func TestSession_ScanUsesEmbeddedQuantity(t *testing.T) {
	item := model.CatalogItem{ID: "CHEESE", UnitPrice: 20, HasUnitPrice: true}
	s := NewSession(&stubResolver{res: found(item)}, nil, nil)

	res, err := s.Scan(context.Background(), "2901234025001")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, res.Quantity, 1e-9)
	assert.InDelta(t, 50.0, s.Cart().Total(), 1e-9)
}

func TestSession_OverridePriceWins(t *testing.T) {
	item := model.CatalogItem{ID: "ITEM-1", UnitPrice: 9, HasUnitPrice: true}
	s := NewSession(&stubResolver{res: found(item)}, priceMap{"ITEM-1": 11}, nil)

	res, err := s.Scan(context.Background(), "123")
	require.NoError(t, err)
	assert.InDelta(t, 11.0, res.UnitPrice, 1e-9)
}

func TestSession_RepeatScanKeepsLinePrice(t *testing.T) {
	item := model.CatalogItem{ID: "ITEM-1", UnitPrice: 9, HasUnitPrice: true}
	prices := priceMap{"ITEM-1": 9}
	s := NewSession(&stubResolver{res: found(item)}, prices, nil)

	_, err := s.Scan(context.Background(), "123")
	require.NoError(t, err)

	prices["ITEM-1"] = 15
	res, err := s.Scan(context.Background(), "123")
	require.NoError(t, err)
	assert.InDelta(t, 9.0, res.UnitPrice, 1e-9)

	line, ok := s.Cart().Line("ITEM-1")
	require.True(t, ok)
	assert.InDelta(t, 2.0, line.Quantity, 1e-9)
	assert.InDelta(t, 18.0, s.Cart().Total(), 1e-9)
}

func TestSession_SoftFailures(t *testing.T) {
	tests := []struct {
		name string
		res  catalog.Resolution
		want ScanStatus
	}{
		{name: "not found", res: catalog.Resolution{Status: catalog.StatusNotFound}, want: StatusNotFound},
		{name: "unparseable", res: catalog.Resolution{Status: catalog.StatusUnparseable, Detail: "bad shape"}, want: StatusUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(&stubResolver{res: tt.res}, nil, nil)
			res, err := s.Scan(context.Background(), "123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, tt.res.Detail, res.Detail)
			assert.Zero(t, s.Cart().Count())
		})
	}
}

func TestSession_CanceledScanIsDiscarded(t *testing.T) {
	item := model.CatalogItem{ID: "ITEM-1"}

	t.Run("resolver reports cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := NewSession(&stubResolver{err: context.Canceled}, nil, nil)

		res, err := s.Scan(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, StatusDiscarded, res.Status)
	})

	t.Run("caller leaves after resolution", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s := NewSession(&stubResolver{res: found(item), hook: cancel}, nil, nil)

		res, err := s.Scan(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, StatusDiscarded, res.Status)
		assert.Zero(t, s.Cart().Count(), "discarded scans never touch the cart")
	})
}

func TestSession_ResolverErrorPropagates(t *testing.T) {
	s := NewSession(&stubResolver{err: errors.New("store missing")}, nil, nil)
	_, err := s.Scan(context.Background(), "123")
	require.Error(t, err)
}

func TestSession_ResolveAndQuantifyLeavesCartAlone(t *testing.T) {
	item := model.CatalogItem{ID: "ITEM-1", UnitPrice: 3, HasUnitPrice: true}
	s := NewSession(&stubResolver{res: found(item)}, nil, nil)

	res, err := s.ResolveAndQuantify(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, res.Status)
	assert.Zero(t, s.Cart().Count())
}

func TestSession_WithCatalogResolver(t *testing.T) {
	store := catalog.NewStore(nil)
	store.Replace([]model.RawRow{
		{"name": "ITEM-1", "item_name": "Widget", "rate": 4.0, "standard_rate": "5.00",
			"barcodes": []any{map[string]any{"barcode": "000123"}}},
	})
	r, err := catalog.NewResolver(store, nil, catalog.DefaultConfig(), nil)
	require.NoError(t, err)
	s := NewSession(r, store, nil)

	res, err := s.Scan(context.Background(), "123")
	require.NoError(t, err)
	require.Equal(t, StatusAdded, res.Status)
	assert.Equal(t, "Widget", res.Item.Name())
	assert.InDelta(t, 5.0, res.UnitPrice, 1e-9, "selling price override beats rate")

	item, ok := s.ItemInCart("ITEM-1")
	require.True(t, ok)
	require.NoError(t, s.Cart().Decrement(item))
	assert.Zero(t, s.Cart().Count())
}
