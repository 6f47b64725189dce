// Package pos ties code resolution to the cart for one checkout session.
package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/frappe-till/internal/barcode"
	"github.com/Veraticus/frappe-till/internal/cart"
	"github.com/Veraticus/frappe-till/internal/catalog"
	"github.com/Veraticus/frappe-till/internal/model"
)

// ScanStatus is the outcome of a scan as seen by the operator.
type ScanStatus string

// Scan outcomes.
const (
	StatusAdded       ScanStatus = "added"
	StatusResolved    ScanStatus = "resolved"
	StatusNotFound    ScanStatus = "not_found"
	StatusUnparseable ScanStatus = "unparseable"
	// StatusDiscarded means the caller stopped waiting before the
	// resolution finished; nothing was changed.
	StatusDiscarded ScanStatus = "discarded"
)

// ScanResult describes one resolved (or unresolved) scan.
type ScanResult struct {
	Item      model.CatalogItem
	Status    ScanStatus
	Code      string
	Source    string
	Detail    string
	Quantity  float64
	UnitPrice float64
}

// Resolver resolves a scanned code.
type Resolver interface {
	Resolve(ctx context.Context, code string) (catalog.Resolution, error)
}

// PriceBook supplies selling price overrides by item ID.
type PriceBook interface {
	OverridePrice(itemID string) (float64, bool)
}

// Session is one checkout: a cart plus the resolver feeding it.
type Session struct {
	resolver Resolver
	prices   PriceBook
	cart     *cart.Cart
	logger   *slog.Logger
}

// NewSession starts a session with an empty cart. prices may be nil.
func NewSession(resolver Resolver, prices PriceBook, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	c := cart.New()
	return &Session{
		resolver: resolver,
		prices:   prices,
		cart:     c,
		logger:   logger.With("session", c.ID().String()),
	}
}

// Cart returns the session's cart.
func (s *Session) Cart() *cart.Cart {
	return s.cart
}

// ResolveAndQuantify resolves code and works out the quantity and price a
// scan of it would add. It does not touch the cart. A canceled context
// yields StatusDiscarded and a nil error.
func (s *Session) ResolveAndQuantify(ctx context.Context, code string) (ScanResult, error) {
	result := ScanResult{Code: code}

	res, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			s.logger.Debug("scan discarded", "code", code, "error", err)
			result.Status = StatusDiscarded
			return result, nil
		}
		return result, fmt.Errorf("failed to resolve %q: %w", code, err)
	}
	if ctx.Err() != nil {
		result.Status = StatusDiscarded
		return result, nil
	}

	result.Source = res.Source
	result.Detail = res.Detail

	switch res.Status {
	case catalog.StatusFound:
	case catalog.StatusUnparseable:
		result.Status = StatusUnparseable
		return result, nil
	default:
		result.Status = StatusNotFound
		return result, nil
	}

	result.Status = StatusResolved
	result.Item = res.Item
	result.Quantity = barcode.QuantityOrDefault(code)
	result.UnitPrice = s.priceFor(res.Item)
	return result, nil
}

// Scan resolves code and merges it into the cart. When the item is already
// in the cart, only its quantity grows and UnitPrice reports the line's
// existing price.
func (s *Session) Scan(ctx context.Context, code string) (ScanResult, error) {
	result, err := s.ResolveAndQuantify(ctx, code)
	if err != nil || result.Status != StatusResolved {
		s.logScan(result)
		return result, err
	}

	if err := s.cart.AddPriced(result.Item, result.Quantity, result.UnitPrice); err != nil {
		return result, fmt.Errorf("failed to add %s to cart: %w", result.Item.ID, err)
	}
	if line, ok := s.cart.Line(result.Item.ID); ok {
		result.UnitPrice = line.UnitPrice
	}
	result.Status = StatusAdded
	s.logScan(result)
	return result, nil
}

// ItemInCart finds the catalog item of a cart line by ID, for commands that
// refer to lines by item code.
func (s *Session) ItemInCart(itemID string) (model.CatalogItem, bool) {
	line, ok := s.cart.Line(itemID)
	return line.Item, ok
}

func (s *Session) priceFor(item model.CatalogItem) float64 {
	if s.prices != nil {
		if p, ok := s.prices.OverridePrice(item.ID); ok {
			return p
		}
	}
	return item.DefaultPrice()
}

func (s *Session) logScan(r ScanResult) {
	switch r.Status {
	case StatusAdded:
		s.logger.Info("item scanned",
			"code", r.Code,
			"item", r.Item.ID,
			"quantity", r.Quantity,
			"unit_price", r.UnitPrice,
			"source", r.Source)
	case StatusNotFound, StatusUnparseable:
		s.logger.Warn("scan not resolved",
			"code", r.Code,
			"status", r.Status,
			"detail", r.Detail)
	}
}
