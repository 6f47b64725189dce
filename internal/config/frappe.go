package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/frappe-till/internal/catalog"
	"github.com/Veraticus/frappe-till/internal/common"
	"github.com/Veraticus/frappe-till/internal/frappe"
)

// LoadFrappeConfig loads backend settings. It follows this precedence:
// 1. Viper configuration (config file or TILL_ env vars)
// 2. Direct environment variables (FRAPPE_*)
// 3. Default values
func LoadFrappeConfig() (*frappe.Config, error) {
	cfg := frappe.DefaultConfig()

	if v := viper.GetString("frappe.url"); v != "" {
		cfg.BaseURL = v
	}
	if v := viper.GetString("frappe.api_key"); v != "" {
		cfg.APIKey = v
	}
	if v := viper.GetString("frappe.api_secret"); v != "" {
		cfg.APISecret = v
	}
	if viper.IsSet("frappe.resolve_method") {
		// An explicit empty value disables the resolution endpoint.
		cfg.ResolveMethod = viper.GetString("frappe.resolve_method")
	}
	if v := viper.GetString("frappe.catalog_method"); v != "" {
		cfg.CatalogMethod = v
	}
	if v := viper.GetInt("frappe.page_size"); v != 0 {
		cfg.PageSize = v
	}
	if v := viper.GetInt("frappe.rate_limit"); v != 0 {
		cfg.RateLimit = v
	}
	if v := viper.GetInt("frappe.max_retries"); v != 0 {
		cfg.MaxRetries = v
	}
	if v := viper.GetDuration("frappe.timeout"); v != 0 {
		cfg.Timeout = v
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("FRAPPE_URL")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("FRAPPE_API_KEY")
	}
	if cfg.APISecret == "" {
		cfg.APISecret = os.Getenv("FRAPPE_API_SECRET")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadResolverConfig loads the lookup cascade settings.
func LoadResolverConfig() (catalog.Config, error) {
	cfg := catalog.DefaultConfig()

	if names := viper.GetStringSlice("resolver.strategies"); len(names) > 0 {
		strategies, err := catalog.ParseStrategies(names)
		if err != nil {
			return catalog.Config{}, fmt.Errorf("%w: resolver.strategies: %w", common.ErrInvalidConfig, err)
		}
		cfg.Strategies = strategies
	}
	if fields := viper.GetStringSlice("resolver.search_fields"); len(fields) > 0 {
		cfg.SearchFields = fields
	}
	if v := viper.GetString("resolver.reference_field"); v != "" {
		cfg.ReferenceField = v
	}
	if viper.IsSet("resolver.attempt_timeout") {
		cfg.AttemptTimeout = viper.GetDuration("resolver.attempt_timeout")
		if cfg.AttemptTimeout < 0 {
			return catalog.Config{}, fmt.Errorf("%w: resolver.attempt_timeout must not be negative", common.ErrInvalidConfig)
		}
	}

	return cfg, nil
}
