// Package frappe is a client for the Frappe/ERPNext REST API, covering the
// item lookups a point-of-sale terminal needs.
package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/frappe-till/internal/catalog"
	"github.com/Veraticus/frappe-till/internal/common"
	"github.com/Veraticus/frappe-till/internal/model"
)

// DefaultResolveMethod is ERPNext's point-of-sale barcode search.
const DefaultResolveMethod = "erpnext.selling.page.point_of_sale.point_of_sale.search_for_serial_or_batch_or_barcode_number"

// Config holds connection settings for a Frappe site.
type Config struct {
	BaseURL        string
	APIKey         string
	APISecret      string
	ResolveMethod  string
	CatalogMethod  string
	ItemDoctype    string
	BarcodeDoctype string
	CatalogFilters [][]any
	Timeout        time.Duration
	RetryDelay     time.Duration
	PageSize       int
	RateLimit      int
	MaxRetries     int
}

// DefaultConfig returns the settings for a stock ERPNext site.
func DefaultConfig() Config {
	return Config{
		ResolveMethod:  DefaultResolveMethod,
		ItemDoctype:    "Item",
		BarcodeDoctype: "Item Barcode",
		CatalogFilters: [][]any{{"disabled", "=", 0}, {"is_sales_item", "=", 1}},
		Timeout:        15 * time.Second,
		RetryDelay:     500 * time.Millisecond,
		PageSize:       500,
		RateLimit:      600,
		MaxRetries:     3,
	}
}

// Validate checks that the configuration can be used.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: frappe base URL", common.ErrMissingConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: frappe base URL %q", common.ErrInvalidConfig, c.BaseURL)
	}
	if (c.APIKey == "") != (c.APISecret == "") {
		return fmt.Errorf("%w: API key and secret must be set together", common.ErrInvalidConfig)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// Client talks to one Frappe site. It implements catalog.Backend and
// catalog.Source.
type Client struct {
	httpClient *http.Client
	limiter    *requestBudget
	logger     *slog.Logger
	baseURL    string
	retryOpts  common.RetryOptions
	cfg        Config
}

var (
	_ catalog.Backend = (*Client)(nil)
	_ catalog.Source  = (*Client)(nil)
)

// NewClient creates a client. Zero-valued fields in cfg take their defaults.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg = withDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
		limiter: newRequestBudget(cfg.RateLimit),
		retryOpts: common.RetryOptions{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.ItemDoctype == "" {
		cfg.ItemDoctype = def.ItemDoctype
	}
	if cfg.BarcodeDoctype == "" {
		cfg.BarcodeDoctype = def.BarcodeDoctype
	}
	if cfg.CatalogFilters == nil {
		cfg.CatalogFilters = def.CatalogFilters
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	return cfg
}

// Close drops the client's idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// ResolveBarcode calls the configured resolution method. With no method
// configured it reports no match.
func (c *Client) ResolveBarcode(ctx context.Context, code string) (any, error) {
	if c.cfg.ResolveMethod == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("search_value", code)
	return c.get(ctx, "/api/method/"+c.cfg.ResolveMethod, q)
}

// LookupBarcodeReference returns the parent item of a barcode child row.
func (c *Client) LookupBarcodeReference(ctx context.Context, code, field string) (string, error) {
	q, err := listQuery([][]any{{field, "=", code}}, []string{"parent"}, 0, 1)
	if err != nil {
		return "", err
	}
	q.Set("parent", c.cfg.ItemDoctype)
	raw, err := c.get(ctx, resourcePath(c.cfg.BarcodeDoctype), q)
	if err != nil {
		return "", err
	}

	env := catalog.Unwrap(raw)
	if env.Kind != catalog.KindRecord {
		return "", nil
	}
	parent, _ := env.Record["parent"].(string)
	return strings.TrimSpace(parent), nil
}

// GetItem fetches one item document.
func (c *Client) GetItem(ctx context.Context, id string) (any, error) {
	return c.get(ctx, resourcePath(c.cfg.ItemDoctype, id), nil)
}

// SearchItem returns the first item whose field equals value.
func (c *Client) SearchItem(ctx context.Context, field, value string) (any, error) {
	q, err := listQuery([][]any{{field, "=", value}}, []string{"*"}, 0, 1)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, resourcePath(c.cfg.ItemDoctype), q)
}

// FetchCatalog loads every sellable item, page by page, retrying transient
// failures. The list API omits child tables, so barcodes are fetched from
// the barcode doctype and attached to each item as a "barcodes" list.
func (c *Client) FetchCatalog(ctx context.Context) ([]model.RawRow, error) {
	if c.cfg.CatalogMethod != "" {
		var rows []model.RawRow
		err := common.WithRetry(ctx, func() error {
			raw, err := c.get(ctx, "/api/method/"+c.cfg.CatalogMethod, nil)
			if err != nil {
				return retryable(err)
			}
			rows, err = rowsFrom(raw)
			return err
		}, c.retryOpts)
		if err != nil {
			return nil, err
		}
		c.logger.Info("catalog fetched", "method", c.cfg.CatalogMethod, "rows", len(rows))
		return rows, nil
	}

	items, err := c.fetchAll(ctx, c.cfg.ItemDoctype, c.cfg.CatalogFilters, []string{"*"}, nil)
	if err != nil {
		return nil, err
	}

	codes, err := c.fetchAll(ctx, c.cfg.BarcodeDoctype, nil, []string{"parent", "barcode"},
		url.Values{"parent": {c.cfg.ItemDoctype}})
	switch {
	case errors.Is(err, catalog.ErrPermissionDenied):
		// Items stay sellable through the remote cascade.
		c.logger.Warn("barcode table not readable, local index will have no barcodes", "error", err)
	case err != nil:
		return nil, err
	default:
		attachBarcodes(items, codes)
	}

	c.logger.Info("catalog fetched", "doctype", c.cfg.ItemDoctype, "rows", len(items), "barcodes", len(codes))
	return items, nil
}

// fetchAll reads every page of a doctype list.
func (c *Client) fetchAll(ctx context.Context, doctype string, filters [][]any, fields []string, extra url.Values) ([]model.RawRow, error) {
	var all []model.RawRow
	for start := 0; ; start += c.cfg.PageSize {
		q, err := listQuery(filters, fields, start, c.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		for k, v := range extra {
			q[k] = v
		}

		var page []model.RawRow
		err = common.WithRetry(ctx, func() error {
			raw, err := c.get(ctx, resourcePath(doctype), q)
			if err != nil {
				return retryable(err)
			}
			page, err = rowsFrom(raw)
			return err
		}, c.retryOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page at %d: %w", doctype, start, err)
		}

		all = append(all, page...)
		c.logger.Debug("page fetched", "doctype", doctype, "start", start, "rows", len(page))
		if len(page) < c.cfg.PageSize {
			return all, nil
		}
	}
}

// attachBarcodes appends each barcode row to its parent item's "barcodes"
// list. Rows whose parent is not in items are ignored.
func attachBarcodes(items, codes []model.RawRow) {
	byName := make(map[string]model.RawRow, len(items))
	for _, item := range items {
		if name, ok := item["name"].(string); ok && name != "" {
			byName[name] = item
		}
	}

	for _, code := range codes {
		parent, _ := code["parent"].(string)
		value, _ := code["barcode"].(string)
		item, ok := byName[parent]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		list, _ := item["barcodes"].([]any)
		item["barcodes"] = append(list, map[string]any{"barcode": value})
	}
}

// get performs a GET and decodes the JSON body with numbers preserved.
// 404 yields (nil, nil).
func (c *Client) get(ctx context.Context, path string, query url.Values) (any, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "token "+c.cfg.APIKey+":"+c.cfg.APISecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: GET %s (status %d)", catalog.ErrPermissionDenied, path, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.throttle(parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))
		return nil, fmt.Errorf("%w: GET %s", common.ErrRateLimit, path)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: GET %s (status %d)", common.ErrBackendUnavailable, path, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: GET %s (status %d): %s", common.ErrUnexpectedStatus, path, resp.StatusCode, truncate(body, 200))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}

// rowsFrom extracts a list of records from {data: [...]}, {message: [...]}
// or a bare list.
func rowsFrom(raw any) ([]model.RawRow, error) {
	var list []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		list = v
	case map[string]any:
		for _, key := range []string{"data", "message"} {
			if l, ok := v[key].([]any); ok {
				list = l
				break
			}
		}
		if list == nil {
			return nil, common.Permanent(fmt.Errorf("%w: catalog response has no row list", common.ErrUnexpectedStatus))
		}
	default:
		return nil, common.Permanent(fmt.Errorf("%w: catalog response is %T", common.ErrUnexpectedStatus, raw))
	}

	rows := make([]model.RawRow, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, model.RawRow(m))
		}
	}
	return rows, nil
}

// retryable keeps permission and client errors out of the retry loop.
func retryable(err error) error {
	if common.IsRetryable(err) {
		return err
	}
	if errors.Is(err, catalog.ErrPermissionDenied) || errors.Is(err, common.ErrUnexpectedStatus) {
		return common.Permanent(err)
	}
	return err
}

func resourcePath(doctype string, name ...string) string {
	p := "/api/resource/" + url.PathEscape(doctype)
	for _, n := range name {
		p += "/" + url.PathEscape(n)
	}
	return p
}

func listQuery(filters [][]any, fields []string, start, limit int) (url.Values, error) {
	q := url.Values{}
	if len(filters) > 0 {
		f, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		q.Set("filters", string(f))
	}
	if len(fields) > 0 {
		f, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode fields: %w", err)
		}
		q.Set("fields", string(f))
	}
	if start > 0 {
		q.Set("limit_start", strconv.Itoa(start))
	}
	if limit > 0 {
		q.Set("limit_page_length", strconv.Itoa(limit))
	}
	return q, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
