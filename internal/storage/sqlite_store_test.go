package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "missions.db"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteStore_MissionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	id := uuid.New().String()
	require.NoError(t, s.CreateMission(ctx, id, map[string]any{"waypoints": 9}))

	m, err := s.Mission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, StatusRunning, m.Status)
	assert.Nil(t, m.FinishTime)
	require.NotNil(t, m.Config)
	assert.JSONEq(t, `{"waypoints": 9}`, *m.Config)
	assert.WithinDuration(t, time.Now(), m.StartTime, time.Minute)

	require.NoError(t, s.FinishMission(ctx, id, StatusAborted))

	m, err = s.Mission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, m.Status)
	require.NotNil(t, m.FinishTime)
	assert.False(t, m.FinishTime.Before(m.StartTime))
}

func TestSqliteStore_MissionNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateMission(ctx, "known", nil))

	_, err := s.Mission(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.FinishMission(ctx, "missing", StatusCompleted), ErrNotFound)
	assert.ErrorIs(t, s.SaveSite(ctx, &Site{MissionID: "missing"}), ErrNotFound)
}

func TestSqliteStore_SaveSiteUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	id := uuid.New().String()
	require.NoError(t, s.CreateMission(ctx, id, "raw config"))

	first := &Site{MissionID: id, Index: 0, X: 0, Y: 2.72, Color: "red", Marker: "+", Diagnosis: "unknown", Note: "Unknown"}
	second := &Site{MissionID: id, Index: 1, X: 0.72, Y: 3.94, Color: "green", Marker: "-", Diagnosis: "healthy", Note: "Healthy"}

	// stored out of order on purpose, Sites sorts by index
	require.NoError(t, s.SaveSite(ctx, second))
	require.NoError(t, s.SaveSite(ctx, first))

	revisited := *first
	revisited.Diagnosis = "hazard"
	revisited.Note = "Hazard"
	revisited.Symbol = "hazard"
	revisited.SymbolSeen = true
	revisited.Revisited = true
	require.NoError(t, s.SaveSite(ctx, &revisited))

	sites, err := s.Sites(ctx, id)
	require.NoError(t, err)

	want := []*Site{&revisited, second}
	if diff := cmp.Diff(want, sites, cmpopts.IgnoreFields(Site{}, "UpdatedAt")); diff != "" {
		t.Errorf("sites mismatch (-want +got):\n%s", diff)
	}
	for _, site := range sites {
		assert.False(t, site.UpdatedAt.IsZero())
	}
}

func TestSqliteStore_Missions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Minute)
	}

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateMission(ctx, id, nil))
	}

	missions, err := s.Missions(ctx)
	require.NoError(t, err)
	require.Len(t, missions, 3)

	for i, id := range []string{"first", "second", "third"} {
		assert.Equal(t, id, missions[i].ID)
		assert.True(t, missions[i].StartTime.Equal(start.Add(time.Duration(i+1)*time.Minute)))
		assert.Nil(t, missions[i].Config)
	}
}

func TestSqliteStore_CloseTwice(t *testing.T) {
	t.Parallel()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "missions.db"))
	require.NoError(t, s.CreateMission(context.Background(), "m", nil))

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
