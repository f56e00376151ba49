// Package canvas holds the printer-native pixel buffer.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/pgavlin/letratag/internal/bitmap"
)

// MaxHeight is the number of printable rows on a LetraTag 200B tape.
const MaxHeight = 31

var (
	ErrTooTall = errors.New("canvas: taller than the printable height")
	ErrEmpty   = errors.New("canvas: empty bitmap")
)

// A Canvas is a monochrome pixel grid sized for the label printer. Its width grows with the content and its height
// never exceeds MaxHeight. Pixels are stored row-major and start off.
//
// A Canvas can only be populated by Build, so once a caller holds one it does not change.
type Canvas struct {
	width, height int
	pix           []bool
}

func newCanvas(width, height int) (*Canvas, error) {
	if height > MaxHeight {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooTall, height, MaxHeight)
	}
	if width <= 0 || height <= 0 {
		return nil, ErrEmpty
	}
	return &Canvas{width: width, height: height, pix: make([]bool, width*height)}, nil
}

// Build copies the ink of a normalized bitmap onto a fresh Canvas of the same size.
func Build(b *bitmap.Image) (*Canvas, error) {
	bounds := b.Bounds()
	c, err := newCanvas(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			if b.Ink(bounds.Min.X+x, bounds.Min.Y+y) {
				c.set(x, y, true)
			}
		}
	}
	return c, nil
}

func (c *Canvas) set(x, y int, on bool) {
	c.pix[y*c.width+x] = on
}

func (c *Canvas) Width() int {
	return c.width
}

func (c *Canvas) Height() int {
	return c.height
}

// Pixel reports whether the pixel at (x, y) is on. Coordinates outside the canvas are off.
func (c *Canvas) Pixel(x, y int) bool {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return false
	}
	return c.pix[y*c.width+x]
}

// Count returns the number of pixels that are on.
func (c *Canvas) Count() int {
	n := 0
	for _, on := range c.pix {
		if on {
			n++
		}
	}
	return n
}

// Column packs column x into bytes, most significant bit first, top row first. The final byte is zero-padded.
func (c *Canvas) Column(x int) []byte {
	col := make([]byte, (c.height+7)/8)
	for y := 0; y < c.height; y++ {
		if c.Pixel(x, y) {
			col[y/8] |= 0x80 >> uint(y%8)
		}
	}
	return col
}

func (c *Canvas) ColorModel() color.Model {
	return color.GrayModel
}

func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.width, c.height)
}

// At renders on pixels as black and off pixels as white.
func (c *Canvas) At(x, y int) color.Color {
	if c.Pixel(x, y) {
		return color.Black
	}
	return color.White
}

func (c *Canvas) String() string {
	return fmt.Sprintf("Canvas(%d,%d)", c.width, c.height)
}
