// Package testutil provides test helpers shared across packages: an
// in-memory snapshot database and catalog row builders.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/frappe-till/internal/model"
	"github.com/Veraticus/frappe-till/internal/storage"
)

// TestDB wraps an in-memory storage with test helpers.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database, seeded with rows when
// any are given. It is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewRow("ITEM-1").Named("Coffee").WithBarcode("4006381333931").Build(),
//	)
func SetupTestDB(t *testing.T, rows ...model.RawRow) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(rows) > 0 {
		if err := store.SaveCatalogSnapshot(ctx, rows, nil); err != nil {
			t.Fatalf("failed to seed catalog snapshot: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustLoad returns the stored snapshot or fails the test.
func (db *TestDB) MustLoad() []model.RawRow {
	db.t.Helper()
	rows, err := db.Storage.LoadCatalogSnapshot(context.Background())
	if err != nil {
		db.t.Fatalf("failed to load catalog snapshot: %v", err)
	}
	return rows
}
