package vision

import (
	"image"

	"golang.org/x/image/draw"
)

const (
	WorkingWidth  = 320
	WorkingHeight = 240
)

// Downsample scales img to width x height with bilinear interpolation
func Downsample(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Grayscale converts img to 8-bit luma with its origin moved to (0, 0)
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// centralThird returns the middle third of r on both axes
func centralThird(r image.Rectangle) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	return image.Rect(r.Min.X+w/3, r.Min.Y+h/3, r.Min.X+w/3*2, r.Min.Y+h/3*2)
}
