package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/frappe-till/internal/model"
)

// ErrNoSnapshot is returned when no catalog snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no catalog snapshot")

// SnapshotStore persists the last successfully fetched catalog.
type SnapshotStore interface {
	SaveCatalogSnapshot(ctx context.Context, rows []model.RawRow, progress func(done int)) error
	LoadCatalogSnapshot(ctx context.Context) ([]model.RawRow, error)
}

// SnapshotSource fetches from Remote and records each good fetch in
// Snapshots. When Remote fails, the last snapshot is served instead. A nil
// Remote serves the snapshot only.
type SnapshotSource struct {
	Remote    Source
	Snapshots SnapshotStore
	Logger    *slog.Logger
	// Progress, when set, is passed to SaveCatalogSnapshot.
	Progress func(done int)
}

// FetchCatalog implements Source.
func (s *SnapshotSource) FetchCatalog(ctx context.Context) ([]model.RawRow, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if s.Remote == nil {
		return s.Snapshots.LoadCatalogSnapshot(ctx)
	}

	rows, err := s.Remote.FetchCatalog(ctx)
	if err == nil {
		if saveErr := s.Snapshots.SaveCatalogSnapshot(ctx, rows, s.Progress); saveErr != nil {
			logger.Warn("failed to save catalog snapshot", "error", saveErr)
		}
		return rows, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	logger.Warn("catalog fetch failed, using last snapshot", "error", err)
	cached, loadErr := s.Snapshots.LoadCatalogSnapshot(ctx)
	if loadErr != nil {
		return nil, fmt.Errorf("%w (snapshot: %v)", err, loadErr)
	}
	return cached, nil
}
