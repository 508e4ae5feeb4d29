package vision

import (
	"fmt"
	"image"
	"sync"

	"github.com/golang/freetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi         float64 = 72
	hinting     string  = "full"
	captionSize float64 = 14
	lineSpacing float64 = 1.4
)

// Annotator lays debug tiles out in a grid and writes captions over them
type Annotator struct {
	mu      sync.Mutex
	context *freetype.Context
}

func NewAnnotator() (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(captionSize)
	context.SetSrc(image.White)

	switch hinting {
	case "full":
		context.SetHinting(font.HintingFull)
	default:
		context.SetHinting(font.HintingNone)
	}

	return &Annotator{context: context}, nil
}

// Mosaic draws tiles row by row, columns per row, each cell sized to the
// largest tile. Nil tiles leave their cell black.
func (a *Annotator) Mosaic(tiles []image.Image, columns int) (*image.RGBA, []image.Rectangle) {
	if columns <= 0 {
		columns = 1
	}

	var cellW, cellH int
	for _, tile := range tiles {
		if tile == nil {
			continue
		}
		cellW = max(cellW, tile.Bounds().Dx())
		cellH = max(cellH, tile.Bounds().Dy())
	}

	rows := (len(tiles) + columns - 1) / columns
	img := image.NewRGBA(image.Rect(0, 0, cellW*columns, cellH*rows))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	cells := make([]image.Rectangle, len(tiles))
	for i, tile := range tiles {
		x, y := (i%columns)*cellW, (i/columns)*cellH
		cells[i] = image.Rect(x, y, x+cellW, y+cellH)

		if tile != nil {
			draw.Draw(img, cells[i], tile, tile.Bounds().Min, draw.Src)
		}
	}

	return img, cells
}

// Caption writes lines of text into rect of img, top to bottom
func (a *Annotator) Caption(img *image.RGBA, rect image.Rectangle, lines ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.context.SetClip(rect)
	a.context.SetDst(img)

	lineHeight := captionSize * lineSpacing
	step := int(lineHeight)
	for i, line := range lines {
		pt := freetype.Pt(rect.Min.X+rect.Dx()/4, rect.Min.Y+rect.Dy()/4+i*step)
		if _, err := a.context.DrawString(line, pt); err != nil {
			return fmt.Errorf("drawing caption: %w", err)
		}
	}

	return nil
}
