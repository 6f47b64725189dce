package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/frappe-till/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySnapshots struct {
	saveErr error
	rows    []model.RawRow
	saves   int
}

func (m *memorySnapshots) SaveCatalogSnapshot(_ context.Context, rows []model.RawRow, progress func(int)) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.rows = rows
	if progress != nil {
		progress(len(rows))
	}
	return nil
}

func (m *memorySnapshots) LoadCatalogSnapshot(_ context.Context) ([]model.RawRow, error) {
	if m.rows == nil {
		return nil, ErrNoSnapshot
	}
	return m.rows, nil
}

func TestSnapshotSource(t *testing.T) {
	ctx := context.Background()

	t.Run("saves successful fetch", func(t *testing.T) {
		snaps := &memorySnapshots{}
		var reported int
		src := &SnapshotSource{
			Remote:    &staticSource{rows: catalogRows()},
			Snapshots: snaps,
			Progress:  func(done int) { reported = done },
		}

		rows, err := src.FetchCatalog(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
		assert.Equal(t, 1, snaps.saves)
		assert.Equal(t, 4, reported)
	})

	t.Run("falls back to snapshot", func(t *testing.T) {
		snaps := &memorySnapshots{rows: catalogRows()[:2]}
		src := &SnapshotSource{
			Remote:    &staticSource{err: errors.New("offline")},
			Snapshots: snaps,
		}

		rows, err := src.FetchCatalog(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("no snapshot to fall back to", func(t *testing.T) {
		src := &SnapshotSource{
			Remote:    &staticSource{err: errors.New("offline")},
			Snapshots: &memorySnapshots{},
		}

		_, err := src.FetchCatalog(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "offline")
		assert.Contains(t, err.Error(), ErrNoSnapshot.Error())
	})

	t.Run("save failure does not fail the fetch", func(t *testing.T) {
		src := &SnapshotSource{
			Remote:    &staticSource{rows: catalogRows()},
			Snapshots: &memorySnapshots{saveErr: errors.New("disk full")},
		}

		rows, err := src.FetchCatalog(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})
}

func TestSnapshotSourceWithoutRemote(t *testing.T) {
	ctx := context.Background()

	src := &SnapshotSource{Snapshots: &memorySnapshots{}}
	_, err := src.FetchCatalog(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snaps := &memorySnapshots{rows: catalogRows()}
	src = &SnapshotSource{Snapshots: snaps}
	rows, err := src.FetchCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(catalogRows()))
	assert.Zero(t, snaps.saves)
}
