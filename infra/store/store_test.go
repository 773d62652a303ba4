package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SonJH7/status-allocation-berths/core/model"
	"github.com/SonJH7/status-allocation-berths/core/schedule"
)

func testSet(t time.Time) []model.Assignment {
	length := 230.5
	return []model.Assignment{
		{ID: "a", Vessel: "EVER", Voyage: "0451E", Berth: "3", Terminal: model.TerminalSND,
			Start: t, End: t.Add(4 * time.Hour), LengthM: &length},
		{ID: "b", Vessel: "MSC", Berth: "7", Terminal: model.TerminalGAM,
			Start: t.Add(5 * time.Hour), End: t.Add(8 * time.Hour)},
	}
}

func runStoreSuite(t *testing.T, open func(t *testing.T) schedule.Store) {
	ctx := context.Background()
	base := time.Date(2025, 10, 29, 10, 0, 0, 0, time.UTC)

	t.Run("empty head", func(t *testing.T) {
		s := open(t)
		_, _, err := s.Head(ctx)
		require.ErrorIs(t, err, schedule.ErrUnknownVersion)
	})

	t.Run("get unknown", func(t *testing.T) {
		s := open(t)
		_, _, err := s.Get(ctx, "nope")
		require.ErrorIs(t, err, schedule.ErrUnknownVersion)
	})

	t.Run("commit and read back", func(t *testing.T) {
		s := open(t)
		set := testSet(base)
		v := model.Version{
			ID:        "v1",
			CreatedAt: base,
			Label:     "baseline",
			Source:    model.SourceIngest,
			Diff:      model.ComputeDiff(nil, set),
		}
		stored, err := s.Commit(ctx, v, set)
		require.NoError(t, err)
		require.Equal(t, int64(1), stored.Seq)

		head, headSet, err := s.Head(ctx)
		require.NoError(t, err)
		require.Equal(t, "v1", head.ID)
		require.Equal(t, model.SourceIngest, head.Source)
		require.Equal(t, "baseline", head.Label)
		require.True(t, head.CreatedAt.Equal(base))
		require.Len(t, head.Diff, 2)
		require.Len(t, headSet, 2)

		got := map[string]model.Assignment{}
		for _, a := range headSet {
			got[a.ID] = a
		}
		require.Equal(t, "EVER", got["a"].Vessel)
		require.Equal(t, "0451E", got["a"].Voyage)
		require.Equal(t, model.TerminalSND, got["a"].Terminal)
		require.NotNil(t, got["a"].LengthM)
		require.InDelta(t, 230.5, *got["a"].LengthM, 1e-9)
		require.Nil(t, got["a"].BeamM)
		require.Nil(t, got["b"].LengthM)
		require.True(t, got["b"].Start.Equal(base.Add(5*time.Hour)))
	})

	t.Run("chain order and seq", func(t *testing.T) {
		s := open(t)
		set := testSet(base)
		v1, err := s.Commit(ctx, model.Version{ID: "v1", CreatedAt: base, Source: model.SourceIngest}, set)
		require.NoError(t, err)
		set[0].Berth = "4"
		v2, err := s.Commit(ctx, model.Version{ID: "v2", ParentID: "v1", CreatedAt: base.Add(time.Minute), Source: model.SourceEdit}, set)
		require.NoError(t, err)
		require.Greater(t, v2.Seq, v1.Seq)

		versions, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		require.Equal(t, "v1", versions[0].ID)
		require.Equal(t, "v2", versions[1].ID)
		require.Equal(t, "v1", versions[1].ParentID)

		head, headSet, err := s.Head(ctx)
		require.NoError(t, err)
		require.Equal(t, "v2", head.ID)
		require.Equal(t, "4", headSet[0].Berth)

		// Older versions stay intact.
		_, oldSet, err := s.Get(ctx, "v1")
		require.NoError(t, err)
		require.Equal(t, "3", oldSet[0].Berth)
	})

	t.Run("committed set is isolated from caller", func(t *testing.T) {
		s := open(t)
		set := testSet(base)
		_, err := s.Commit(ctx, model.Version{ID: "v1", CreatedAt: base, Source: model.SourceIngest}, set)
		require.NoError(t, err)
		set[0].Vessel = "MUTATED"
		_, got, err := s.Get(ctx, "v1")
		require.NoError(t, err)
		require.Equal(t, "EVER", got[0].Vessel)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) schedule.Store {
		s := NewMemoryStore()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) schedule.Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "berth.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 10, 29, 10, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "berth.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	set := testSet(base)
	_, err = s.Commit(ctx, model.Version{
		ID: "v1", CreatedAt: base, Source: model.SourceIngest,
		Diff: model.ComputeDiff(nil, set),
	}, set)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()
	head, headSet, err := s2.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, "v1", head.ID)
	require.Len(t, head.Diff, 2)
	require.Len(t, headSet, 2)
}
