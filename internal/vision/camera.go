package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoFrame is returned when the camera has not produced a frame yet
var ErrNoFrame = errors.New("no frame available")

var frameExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// DirCamera serves the newest image file an external frame grabber dropped
// into a directory, scaled to the working resolution
type DirCamera struct {
	dir    string
	width  int
	height int
}

func NewDirCamera(dir string) *DirCamera {
	return &DirCamera{dir: dir, width: WorkingWidth, height: WorkingHeight}
}

func (c *DirCamera) LatestFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading frame directory: %w", err)
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // removed while listing
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest, newestTime = entry.Name(), info.ModTime()
		}
	}

	if newest == "" {
		return nil, fmt.Errorf("%w in '%s'", ErrNoFrame, c.dir)
	}

	f, err := os.Open(filepath.Join(c.dir, newest))
	if err != nil {
		return nil, fmt.Errorf("opening frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame '%s': %w", newest, err)
	}

	return Downsample(img, c.width, c.height), nil
}
