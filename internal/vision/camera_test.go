package vision

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image, modTime time.Time) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestDirCamera_LatestFrame(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Now()

	small := func(img image.Image) image.Image { return Downsample(img, 64, 48) }
	writePNG(t, filepath.Join(dir, "b.png"), small(solidFrame(markerYellow)), now.Add(-time.Minute))
	writePNG(t, filepath.Join(dir, "a.png"), small(solidFrame(markerRed)), now)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	frame, err := NewDirCamera(dir).LatestFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, WorkingWidth, WorkingHeight), frame.Bounds())

	cc := NewColorClassifier(nil)
	c, _, err := cc.ClassifyFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, ColorRed, c)
}

func TestDirCamera_Empty(t *testing.T) {
	t.Parallel()

	_, err := NewDirCamera(t.TempDir()).LatestFrame(context.Background())
	assert.ErrorIs(t, err, ErrNoFrame)
}
