package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/boombuler/barcode/ean"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// A Symbology is a barcode standard.
type Symbology string

const (
	Code128    Symbology = "code128"
	Code39     Symbology = "code39"
	EAN        Symbology = "ean"
	DataMatrix Symbology = "datamatrix"
	QR         Symbology = "qr"
)

// Symbologies lists the supported symbologies, default first.
var Symbologies = []Symbology{Code128, Code39, EAN, DataMatrix, QR}

// ParseSymbology parses a symbology name. The empty string selects Code128.
func ParseSymbology(s string) (Symbology, error) {
	if s == "" {
		return Code128, nil
	}
	for _, sym := range Symbologies {
		if strings.EqualFold(s, string(sym)) {
			return sym, nil
		}
	}
	return "", fmt.Errorf("unknown symbology %q", s)
}

func (s Symbology) linear() bool {
	return s == Code128 || s == Code39 || s == EAN
}

// SymbolOptions control the geometry of an encoded symbol.
type SymbolOptions struct {
	ModuleWidth int  // Width of the narrowest bar in pixels.
	BarHeight   int  // Height of linear bars in pixels.
	QuietZone   int  // Blank margin in modules.
	Annotate    bool // Draw the payload under the symbol.
}

// DefaultSymbolOptions are used for any zero field. The bar height is taller than the tape on purpose: the
// normalizer scales the symbol down to fit, which keeps bars an integral multiple wide at typical payload lengths.
var DefaultSymbolOptions = SymbolOptions{ModuleWidth: 2, BarHeight: 62, QuietZone: 2}

func (o SymbolOptions) withDefaults() SymbolOptions {
	if o.ModuleWidth <= 0 {
		o.ModuleWidth = DefaultSymbolOptions.ModuleWidth
	}
	if o.BarHeight <= 0 {
		o.BarHeight = DefaultSymbolOptions.BarHeight
	}
	if o.QuietZone < 0 {
		o.QuietZone = 0
	}
	return o
}

// Symbol encodes payload with the renderer's symbology.
func (r *Renderer) Symbol(payload string) (*image.Gray, error) {
	return r.SymbolWith(payload, r.symbolOptions)
}

// SymbolWith encodes payload with the renderer's symbology and the given options. Linear symbols get the quiet zone
// on the left and right; two-dimensional symbols get it on every side.
func (r *Renderer) SymbolWith(payload string, opts SymbolOptions) (*image.Gray, error) {
	if payload == "" {
		return nil, ErrEmptyContent
	}
	opts = opts.withDefaults()

	var img *image.Gray
	var err error
	if r.symbology.linear() {
		img, err = r.linearSymbol(payload, opts)
	} else {
		img, err = r.matrixSymbol(payload, opts)
	}
	if err != nil {
		return nil, err
	}

	if opts.Annotate {
		r.m.Lock()
		img = annotate(img, r.face, payload)
		r.m.Unlock()
	}
	return img, nil
}

func (r *Renderer) encodeLinear(payload string) (barcode.Barcode, error) {
	switch r.symbology {
	case Code39:
		return code39.Encode(payload, false, false)
	case EAN:
		return ean.Encode(payload)
	default:
		return code128.Encode(payload)
	}
}

func (r *Renderer) linearSymbol(payload string, opts SymbolOptions) (*image.Gray, error) {
	code, err := r.encodeLinear(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedCharacter, r.symbology, err)
	}

	modules := code.Bounds().Dx()
	scaled, err := barcode.Scale(code, modules*opts.ModuleWidth, opts.BarHeight)
	if err != nil {
		return nil, err
	}

	margin := opts.QuietZone * opts.ModuleWidth
	img := blank(scaled.Bounds().Dx()+2*margin, scaled.Bounds().Dy())
	dr := scaled.Bounds().Sub(scaled.Bounds().Min).Add(image.Point{X: margin})
	draw.Draw(img, dr, scaled, scaled.Bounds().Min, draw.Src)
	return img, nil
}

// modules returns the module grid of a two-dimensional symbol without any border.
func (r *Renderer) modules(payload string) ([][]bool, error) {
	if r.symbology == QR {
		q, err := qrcode.New(payload, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedCharacter, r.symbology, err)
		}
		q.DisableBorder = true
		return q.Bitmap(), nil
	}

	code, err := datamatrix.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedCharacter, r.symbology, err)
	}
	bounds := code.Bounds()
	grid := make([][]bool, bounds.Dy())
	for y := range grid {
		grid[y] = make([]bool, bounds.Dx())
		for x := range grid[y] {
			gray := color.GrayModel.Convert(code.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			grid[y][x] = gray.Y < 0x80
		}
	}
	return grid, nil
}

func (r *Renderer) matrixSymbol(payload string, opts SymbolOptions) (*image.Gray, error) {
	grid, err := r.modules(payload)
	if err != nil {
		return nil, err
	}

	mw := opts.ModuleWidth
	margin := opts.QuietZone * mw
	size := image.Point{}
	if len(grid) > 0 {
		size = image.Point{X: len(grid[0]) * mw, Y: len(grid) * mw}
	}

	img := blank(size.X+2*margin, size.Y+2*margin)
	black := image.NewUniform(color.Black)
	for y, row := range grid {
		for x, on := range row {
			if !on {
				continue
			}
			upperLeft := image.Point{X: margin + x*mw, Y: margin + y*mw}
			draw.Draw(img, image.Rectangle{Min: upperLeft, Max: upperLeft.Add(image.Pt(mw, mw))}, black, image.Point{}, draw.Src)
		}
	}
	return img, nil
}

// annotate appends a line with the human-readable payload, centered under the symbol.
func annotate(symbol *image.Gray, face font.Face, text string) *image.Gray {
	metrics := face.Metrics()
	lineHeight := (metrics.Ascent + metrics.Descent).Ceil()
	bounds := symbol.Bounds()

	textWidth := font.MeasureString(face, text).Ceil()
	width := bounds.Dx()
	if textWidth > width {
		width = textWidth
	}

	img := blank(width, bounds.Dy()+lineHeight)
	draw.Draw(img, bounds.Sub(bounds.Min).Add(image.Point{X: (width - bounds.Dx()) / 2}), symbol, bounds.Min, draw.Src)
	dot := fixed.P((width-textWidth)/2, bounds.Dy()+metrics.Ascent.Ceil())
	drawString(img, face, dot, text)
	return img
}

func blank(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}
