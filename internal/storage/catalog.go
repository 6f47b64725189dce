package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/frappe-till/internal/catalog"
	"github.com/Veraticus/frappe-till/internal/model"
)

// progressInterval is how many rows are written between progress callbacks.
const progressInterval = 100

// Refresh describes one saved snapshot.
type Refresh struct {
	FetchedAt time.Time
	ID        int64
	RowCount  int
}

// SaveCatalogSnapshot replaces the stored catalog with rows in a single
// transaction and records the refresh. progress, when non-nil, receives the
// number of rows written so far.
func (s *SQLiteStorage) SaveCatalogSnapshot(ctx context.Context, rows []model.RawRow, progress func(done int)) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRows(rows); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_rows`); err != nil {
		return fmt.Errorf("failed to clear catalog rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO catalog_rows (position, item_id, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}

		var itemID sql.NullString
		if item, ok := catalog.ItemFromRow(row); ok {
			itemID = sql.NullString{String: item.ID, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, i, itemID, string(payload)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}

		if progress != nil && ((i+1)%progressInterval == 0 || i+1 == len(rows)) {
			progress(i + 1)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_refreshes (fetched_at, row_count) VALUES (?, ?)`,
		time.Now().UTC(), len(rows)); err != nil {
		return fmt.Errorf("failed to record refresh: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadCatalogSnapshot returns the stored rows in the order they were saved.
// It returns catalog.ErrNoSnapshot when nothing has been saved.
func (s *SQLiteStorage) LoadCatalogSnapshot(ctx context.Context) ([]model.RawRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if _, err := s.LatestRefresh(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM catalog_rows ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []model.RawRow{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}

		dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
		dec.UseNumber()
		var row model.RawRow
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode catalog row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}
	return result, nil
}

// LatestRefresh returns the most recent snapshot record.
func (s *SQLiteStorage) LatestRefresh(ctx context.Context) (*Refresh, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var r Refresh
	err := s.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, row_count FROM catalog_refreshes ORDER BY id DESC LIMIT 1`,
	).Scan(&r.ID, &r.FetchedAt, &r.RowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest refresh: %w", err)
	}
	return &r, nil
}
