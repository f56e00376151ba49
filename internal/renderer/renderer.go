// Package renderer turns label content into grayscale images.
package renderer

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/pgavlin/letratag/internal/bitmap"
)

var (
	// ErrUnsupportedCharacter is returned when the symbology cannot encode the payload.
	ErrUnsupportedCharacter = errors.New("unsupported character for symbology")
	// ErrEmptyContent is returned when the content renders no pixels.
	ErrEmptyContent = errors.New("content is empty")
)

// The text working canvas. Strings wider than workWidth widen it.
const (
	workWidth  = 1024
	workHeight = 64
)

// A Renderer draws text with a single face and symbols with a single symbology. It is safe for concurrent use;
// calls are serialized because font faces are not.
type Renderer struct {
	// m guards face.
	m sync.Mutex

	face          font.Face
	symbology     Symbology
	symbolOptions SymbolOptions
}

func New(face font.Face, symbology Symbology, symbolOptions SymbolOptions) *Renderer {
	return &Renderer{
		face:          face,
		symbology:     symbology,
		symbolOptions: symbolOptions.withDefaults(),
	}
}

func (r *Renderer) Symbology() Symbology {
	return r.symbology
}

// Text rasterizes s onto an oversized white canvas and crops the result to the bounding box of the ink.
func (r *Renderer) Text(s string) (*image.Gray, error) {
	r.m.Lock()
	defer r.m.Unlock()

	metrics := r.face.Metrics()
	pad := metrics.Height.Ceil()

	width := font.MeasureString(r.face, s).Ceil() + 2*pad
	if width < workWidth {
		width = workWidth
	}
	height := 3 * pad
	if height < workHeight {
		height = workHeight
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	drawString(img, r.face, fixed.P(pad, pad+metrics.Ascent.Ceil()), s)

	cropped, ok := bitmap.Crop(img)
	if !ok {
		return nil, ErrEmptyContent
	}
	return cropped, nil
}

// drawString draws s in black with its baseline origin at dot and returns the advanced dot. Whitespace advances
// the dot by the width of a space and draws nothing. Other unprintable runes are skipped; faces map them to the
// .notdef box.
func drawString(dst draw.Image, face font.Face, dot fixed.Point26_6, s string) fixed.Point26_6 {
	src := image.NewUniform(color.Black)
	prevC := rune(-1)
	for _, c := range s {
		if unicode.IsSpace(c) {
			if advance, ok := face.GlyphAdvance(' '); ok {
				dot.X += advance
			}
			prevC = -1
			continue
		}
		if !unicode.IsPrint(c) {
			continue
		}
		if prevC >= 0 {
			dot.X += face.Kern(prevC, c)
		}
		dr, mask, maskp, advance, ok := face.Glyph(dot, c)
		if !ok {
			continue
		}
		draw.DrawMask(dst, dr, src, image.Point{}, mask, maskp, draw.Over)
		dot.X += advance
		prevC = c
	}
	return dot
}
