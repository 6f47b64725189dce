package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/frappe-till/internal/catalog"
	"github.com/Veraticus/frappe-till/internal/config"
	"github.com/Veraticus/frappe-till/internal/frappe"
	"github.com/Veraticus/frappe-till/internal/pos"
	"github.com/Veraticus/frappe-till/internal/storage"
)

// initStorage opens and migrates the snapshot database.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initClient connects to the configured Frappe site. It returns nil in
// offline mode.
func initClient() (*frappe.Client, error) {
	if viper.GetBool("offline") {
		return nil, nil
	}

	cfg, err := config.LoadFrappeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load frappe config: %w", err)
	}

	return frappe.NewClient(*cfg, slog.Default())
}

// terminal holds everything a lookup or checkout needs.
type terminal struct {
	store    *storage.SQLiteStorage
	client   *frappe.Client
	catalog  *catalog.Store
	resolver *catalog.Resolver
}

// openTerminal loads the catalog (remote with snapshot fallback) and builds
// the resolver.
func openTerminal(ctx context.Context) (*terminal, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	client, err := initClient()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	t := &terminal{store: store, client: client, catalog: catalog.NewStore(slog.Default())}

	src := &catalog.SnapshotSource{Snapshots: store, Logger: slog.Default()}
	var backend catalog.Backend
	if client != nil {
		src.Remote = client
		backend = client
	}

	if _, err := t.catalog.Refresh(ctx, src); err != nil {
		// The remote cascade still works without a local index.
		slog.Warn("starting without a local catalog", "error", err)
	}

	cfg, err := config.LoadResolverConfig()
	if err != nil {
		t.Close()
		return nil, err
	}

	t.resolver, err = catalog.NewResolver(t.catalog, backend, cfg, slog.Default())
	if err != nil {
		t.Close()
		return nil, err
	}

	return t, nil
}

func (t *terminal) newSession() *pos.Session {
	return pos.NewSession(t.resolver, t.catalog, slog.Default())
}

// Close releases the client and database.
func (t *terminal) Close() {
	if t.client != nil {
		t.client.Close()
	}
	if err := t.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}
