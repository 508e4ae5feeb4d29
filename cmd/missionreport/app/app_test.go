package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/waypoint-inspection/internal/storage"
)

func seedStore(t *testing.T) (dbPath, missionID string) {
	t.Helper()

	ctx := context.Background()
	dbPath = filepath.Join(t.TempDir(), "missions.sqlite")
	missionID = "0b6c7a9e-2f0e-4c53-9b1f-6f3c4b0d7a11"

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	require.NoError(t, store.CreateMission(ctx, missionID, nil))
	require.NoError(t, store.SaveSite(ctx, &storage.Site{
		MissionID: missionID, Index: 0, X: 0, Y: 2.72,
		Color: "red", Marker: "+", Diagnosis: "hazard", Note: "Hazard", Symbol: "hazard", SymbolSeen: true, Revisited: true,
	}))
	require.NoError(t, store.SaveSite(ctx, &storage.Site{
		MissionID: missionID, Index: 1, X: 0.72, Y: 3.94,
		Color: "green", Marker: "-", Diagnosis: "healthy", Note: "Healthy",
	}))
	require.NoError(t, store.FinishMission(ctx, missionID, storage.StatusCompleted))

	return dbPath, missionID
}

func TestRun_WritesReport(t *testing.T) {
	t.Parallel()

	dbPath, missionID := seedStore(t)
	out := filepath.Join(t.TempDir(), "report.txt")

	config := &Config{DBPath: dbPath, MissionID: missionID, OutputFile: out, Verbose: true}
	require.NoError(t, Run(context.Background(), config, slog.New(slog.NewTextHandler(io.Discard, nil))))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1,2\nx = 0 y = 2.72,x = 0.72 y = 3.94\n+,-\nHazard,Healthy", string(data))
}

func TestRun_List(t *testing.T) {
	t.Parallel()

	dbPath, missionID := seedStore(t)

	var buf bytes.Buffer
	config := &Config{DBPath: dbPath, List: true}
	require.NoError(t, Run(context.Background(), config, slog.New(slog.NewTextHandler(&buf, nil))))

	assert.Contains(t, buf.String(), "1 stored mission")
	assert.Contains(t, buf.String(), missionID)
	assert.Contains(t, buf.String(), "status=completed")
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := Run(context.Background(), &Config{DBPath: filepath.Join(t.TempDir(), "missing.sqlite")}, logger)
	assert.ErrorIs(t, err, os.ErrNotExist)

	dbPath, _ := seedStore(t)
	err = Run(context.Background(), &Config{DBPath: dbPath, MissionID: "unknown", OutputFile: "x"}, logger)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewConfigFromArgs(t *testing.T) {
	t.Parallel()

	c, err := NewConfigFromArgs("missionreport", []string{"-db", "m.sqlite", "-m", "abc", "-o", "r.txt"})
	require.NoError(t, err)
	assert.Equal(t, &Config{DBPath: "m.sqlite", MissionID: "abc", OutputFile: "r.txt"}, c)

	c, err = NewConfigFromArgs("missionreport", []string{"-db", "m.sqlite", "-list"})
	require.NoError(t, err)
	assert.True(t, c.List)

	for _, args := range [][]string{
		{},
		{"-db", "m.sqlite"},
		{"-db", "m.sqlite", "-m", "abc"},
		{"-unknown"},
	} {
		_, err = NewConfigFromArgs("missionreport", args)
		assert.Error(t, err, "%v", args)
	}
}
