package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/frappe-till/internal/barcode"
	"github.com/Veraticus/frappe-till/internal/model"
)

// ErrPermissionDenied is returned by a Backend when the server refuses a
// lookup for the current credentials. The resolver stops trying the
// strategy that produced it.
var ErrPermissionDenied = errors.New("permission denied")

// ErrUnknownStrategy is returned for a strategy name the resolver does not know.
var ErrUnknownStrategy = errors.New("unknown lookup strategy")

// Backend is the remote lookup surface. Implementations return a nil value
// and nil error for "no such record"; they never fail on 404.
type Backend interface {
	// ResolveBarcode calls the server-side barcode resolution endpoint.
	ResolveBarcode(ctx context.Context, code string) (any, error)
	// LookupBarcodeReference finds the item that owns code in the barcode
	// cross-reference table, matching on field. Empty means no match.
	LookupBarcodeReference(ctx context.Context, code, field string) (string, error)
	// GetItem fetches a catalog item by identifier.
	GetItem(ctx context.Context, id string) (any, error)
	// SearchItem returns at most one item whose field equals value.
	SearchItem(ctx context.Context, field, value string) (any, error)
}

// StrategyName identifies a remote lookup strategy.
type StrategyName string

// Remote strategies, listed in their default priority.
const (
	StrategyResolveEndpoint  StrategyName = "resolve_endpoint"
	StrategyBarcodeReference StrategyName = "barcode_reference"
	StrategyItemFetch        StrategyName = "item_fetch"
	StrategyFieldSearch      StrategyName = "field_search"
)

// SourceLocal is the Resolution.Source for hits in the local index.
const SourceLocal = "local"

// ParseStrategies converts configured names into strategies, keeping order.
func ParseStrategies(names []string) ([]StrategyName, error) {
	out := make([]StrategyName, 0, len(names))
	for _, n := range names {
		s := StrategyName(strings.ToLower(strings.TrimSpace(n)))
		switch s {
		case StrategyResolveEndpoint, StrategyBarcodeReference, StrategyItemFetch, StrategyFieldSearch:
			out = append(out, s)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, n)
		}
	}
	return out, nil
}

// Config controls the remote part of the cascade.
type Config struct {
	// Strategies in the order they are tried.
	Strategies []StrategyName
	// SearchFields are the alternate code fields used by field search, in priority order.
	SearchFields []string
	// ReferenceField is the cross-reference column matched against the code.
	ReferenceField string
	// AttemptTimeout bounds each remote call. Zero leaves it to the backend.
	AttemptTimeout time.Duration
}

// DefaultConfig returns the stock cascade.
func DefaultConfig() Config {
	return Config{
		Strategies: []StrategyName{
			StrategyResolveEndpoint,
			StrategyBarcodeReference,
			StrategyItemFetch,
			StrategyFieldSearch,
		},
		// Stock Item doctype columns only; an unknown column fails the
		// whole request.
		SearchFields:   []string{"item_code"},
		ReferenceField: "barcode",
		AttemptTimeout: 10 * time.Second,
	}
}

// Status is the outcome of a resolution.
type Status int

const (
	// StatusNotFound means every strategy was exhausted without a match.
	StatusNotFound Status = iota
	// StatusFound means Resolution.Item is valid.
	StatusFound
	// StatusUnparseable means responses arrived but none could be turned into an item.
	StatusUnparseable
)

func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusFound:
		return "found"
	case StatusUnparseable:
		return "unparseable"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Resolution is the result of Resolve.
type Resolution struct {
	Item    model.CatalogItem
	Source  string
	Variant string
	Detail  string
	Status  Status
}

// Found reports whether an item was resolved.
func (r Resolution) Found() bool {
	return r.Status == StatusFound
}

// Resolver turns scanned codes into catalog items: the local index first,
// then each remote strategy across all code variants.
type Resolver struct {
	local   *Store
	backend Backend
	logger  *slog.Logger
	cfg     Config
}

// NewResolver creates a resolver. backend may be nil for local-only lookups.
func NewResolver(local *Store, backend Backend, cfg Config, logger *slog.Logger) (*Resolver, error) {
	if local == nil {
		return nil, errors.New("catalog store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Strategies == nil {
		cfg.Strategies = DefaultConfig().Strategies
	}
	if _, err := ParseStrategies(strategyStrings(cfg.Strategies)); err != nil {
		return nil, err
	}
	if cfg.ReferenceField == "" {
		cfg.ReferenceField = DefaultConfig().ReferenceField
	}
	return &Resolver{
		local:   local,
		backend: backend,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// Resolve runs the lookup cascade for code. The only error it returns is the
// context's, when the caller stops waiting; not finding an item is a Status.
func (r *Resolver) Resolve(ctx context.Context, code string) (Resolution, error) {
	variants := barcode.Variants(code)
	if len(variants) == 0 {
		return Resolution{Status: StatusNotFound, Detail: "empty code"}, nil
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	for _, v := range variants {
		if item, ok := r.local.Lookup(v); ok {
			return Resolution{Status: StatusFound, Item: item, Source: SourceLocal, Variant: v}, nil
		}
	}

	if r.backend == nil {
		return Resolution{Status: StatusNotFound}, nil
	}

	var softFailure string
	for _, name := range r.cfg.Strategies {
	attempts:
		for _, v := range variants {
			if err := ctx.Err(); err != nil {
				return Resolution{}, err
			}

			env, err := r.attempt(ctx, name, v)
			if err != nil {
				if ctx.Err() != nil {
					return Resolution{}, ctx.Err()
				}
				if errors.Is(err, ErrPermissionDenied) {
					r.logger.Warn("lookup strategy not permitted, skipping",
						"strategy", name,
						"variant", v,
						"error", err)
					break attempts
				}
				r.logger.Debug("lookup attempt failed",
					"strategy", name,
					"variant", v,
					"error", err)
				continue
			}

			item, detail := r.settle(ctx, name, env)
			if detail != "" {
				r.logger.Warn("lookup returned unusable response",
					"strategy", name,
					"variant", v,
					"detail", detail)
				if softFailure == "" {
					softFailure = fmt.Sprintf("%s: %s", name, detail)
				}
				continue
			}
			if item != nil {
				r.logger.Debug("code resolved",
					"strategy", name,
					"variant", v,
					"item", item.ID)
				return Resolution{Status: StatusFound, Item: *item, Source: string(name), Variant: v}, nil
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	if softFailure != "" {
		return Resolution{Status: StatusUnparseable, Detail: softFailure}, nil
	}
	return Resolution{Status: StatusNotFound}, nil
}

// attempt runs one strategy for one variant.
func (r *Resolver) attempt(ctx context.Context, name StrategyName, variant string) (Envelope, error) {
	ctx, cancel := r.withAttemptTimeout(ctx)
	defer cancel()

	switch name {
	case StrategyResolveEndpoint:
		raw, err := r.backend.ResolveBarcode(ctx, variant)
		if err != nil {
			return Envelope{}, err
		}
		return Unwrap(raw), nil

	case StrategyBarcodeReference:
		id, err := r.backend.LookupBarcodeReference(ctx, variant, r.cfg.ReferenceField)
		if err != nil {
			return Envelope{}, err
		}
		if id = strings.TrimSpace(id); id == "" {
			return Envelope{Kind: KindEmpty}, nil
		}
		return Envelope{Kind: KindReference, Reference: id}, nil

	case StrategyItemFetch:
		raw, err := r.backend.GetItem(ctx, variant)
		if err != nil {
			return Envelope{}, err
		}
		return Unwrap(raw), nil

	case StrategyFieldSearch:
		for _, field := range r.cfg.SearchFields {
			raw, err := r.backend.SearchItem(ctx, field, variant)
			if err != nil {
				if errors.Is(err, ErrPermissionDenied) || ctx.Err() != nil {
					return Envelope{}, err
				}
				r.logger.Debug("field search failed",
					"field", field,
					"variant", variant,
					"error", err)
				continue
			}
			if env := Unwrap(raw); env.Kind != KindEmpty {
				return env, nil
			}
		}
		return Envelope{Kind: KindEmpty}, nil

	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// settle turns an envelope into an item. It returns a nil item and empty
// detail for "no match", and a non-empty detail for a soft failure.
func (r *Resolver) settle(ctx context.Context, name StrategyName, env Envelope) (*model.CatalogItem, string) {
	full := name == StrategyItemFetch
	if env.Kind == KindReference {
		env = r.follow(ctx, name, env.Reference)
		full = true
	}

	switch env.Kind {
	case KindEmpty:
		return nil, ""
	case KindRecord:
		item, ok := ItemFromRow(env.Record)
		if !ok {
			return nil, "record has no identity or display name"
		}
		if !full && !item.HasUnitPrice {
			item = r.complete(ctx, name, item)
		}
		return &item, ""
	case KindReference:
		return nil, "follow-up fetch returned another reference"
	default:
		if env.Detail == "" {
			return nil, "unexpected response shape"
		}
		return nil, "unexpected response shape: " + env.Detail
	}
}

// follow fetches the full record for a reference. A failed follow-up counts
// as no match for the attempt that produced the reference.
func (r *Resolver) follow(ctx context.Context, name StrategyName, id string) Envelope {
	ctx, cancel := r.withAttemptTimeout(ctx)
	defer cancel()

	raw, err := r.backend.GetItem(ctx, id)
	if err != nil {
		r.logger.Debug("follow-up fetch failed",
			"strategy", name,
			"item", id,
			"error", err)
		return Envelope{Kind: KindEmpty}
	}
	return Unwrap(raw)
}

// complete replaces a partial record, such as a barcode search hit without
// name or price, with the full item document. The partial item is kept when
// the fetch fails.
func (r *Resolver) complete(ctx context.Context, name StrategyName, partial model.CatalogItem) model.CatalogItem {
	env := r.follow(ctx, name, partial.ID)
	if env.Kind != KindRecord {
		return partial
	}
	item, ok := ItemFromRow(env.Record)
	if !ok {
		return partial
	}
	if item.ID != partial.ID {
		r.logger.Warn("item document has a different identity",
			"strategy", name,
			"requested", partial.ID,
			"item", item.ID)
		return partial
	}
	if item.DisplayName == "" {
		item.DisplayName = partial.DisplayName
	}
	if item.UnitOfMeasure == "" {
		item.UnitOfMeasure = partial.UnitOfMeasure
	}
	if item.ImageRef == "" {
		item.ImageRef = partial.ImageRef
	}
	return item
}

func (r *Resolver) withAttemptTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.AttemptTimeout)
}

func strategyStrings(s []StrategyName) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = string(s[i])
	}
	return out
}
