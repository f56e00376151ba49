package bitmap

import (
	"image"
	"image/color"
)

// Threshold is the luminance at or above which a pixel carries no ink.
const Threshold = 128

// ColorModel is the default color model for bitmaps.
var ColorModel color.Model = ThresholdColorModel(Threshold)

type thresholdModel byte

func (t thresholdModel) Convert(c color.Color) color.Color {
	return model(color.GrayModel.Convert(c).(color.Gray), byte(t))
}

// ThresholdColorModel returns a color model with the given threshold.
func ThresholdColorModel(threshold byte) color.Model {
	return thresholdModel(threshold)
}

func model(c color.Gray, threshold byte) color.Color {
	if c.Y >= threshold {
		return color.White
	}
	return color.Black
}

// An Image is a 1-bit image. Ink is black; everything else is white.
//
// The backing raster only ever holds 0 or 255, so no intermediate gray survives into an Image.
type Image struct {
	src *image.Gray
}

// New creates a new Image with the given bounds. All pixels start without ink.
func New(r image.Rectangle) *Image {
	b := &Image{src: image.NewGray(r)}
	for i := range b.src.Pix {
		b.src.Pix[i] = 0xff
	}
	return b
}

// ColorModel returns the Image's color model.
func (b *Image) ColorModel() color.Model {
	return ColorModel
}

// Bounds returns the domain for which At can return non-zero color.
func (b *Image) Bounds() image.Rectangle {
	return b.src.Bounds()
}

// At returns the color of the pixel at (x, y). Ink returns color.Black; no ink returns color.White.
func (b *Image) At(x, y int) color.Color {
	return model(b.src.GrayAt(x, y), Threshold)
}

// Ink returns true if the pixel at (x, y) carries ink.
func (b *Image) Ink(x, y int) bool {
	if !(image.Point{x, y}.In(b.src.Rect)) {
		return false
	}
	return b.src.GrayAt(x, y).Y < Threshold
}

// Set sets the color of the pixel at (x, y).
func (b *Image) Set(x, y int, c color.Color) {
	b.src.Set(x, y, b.ColorModel().Convert(c))
}

// SetInk sets or clears the ink at (x, y).
func (b *Image) SetInk(x, y int, v bool) {
	if v {
		b.src.Set(x, y, color.Black)
	} else {
		b.src.Set(x, y, color.White)
	}
}
