package vision

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
)

// PNGDirSink writes every published frame as a numbered PNG file
type PNGDirSink struct {
	dir string
	seq atomic.Uint64
}

func NewPNGDirSink(dir string) (*PNGDirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating debug directory '%s': %w", dir, err)
	}
	return &PNGDirSink{dir: dir}, nil
}

func (s *PNGDirSink) Publish(ctx context.Context, name string, img image.Image) (err error) {
	if err = ctx.Err(); err != nil {
		return
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%05d_%s.png", s.seq.Add(1), name))
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating debug frame: %w", err)
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing debug frame: %w", cErr)
		}
	}()

	if err = png.Encode(out, img); err != nil {
		return fmt.Errorf("encoding debug frame: %w", err)
	}
	return nil
}
