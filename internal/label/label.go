// Package label runs the render, normalize, build, and print pipeline for one piece of content.
package label

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/pgavlin/letratag/internal/bitmap"
	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/printer"
	"github.com/pgavlin/letratag/internal/renderer"
)

// Mode selects how content is rendered.
type Mode string

const (
	Text    Mode = "text"
	Barcode Mode = "barcode"
)

var ErrUnknownMode = errors.New("unknown content mode")

// ParseMode parses a mode name. The empty string selects Barcode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "text":
		return Text, nil
	case "", "barcode", "symbol", "encoded-symbol":
		return Barcode, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
}

// A Printer renders content and prints it through Driver.
type Printer struct {
	Renderer *renderer.Renderer
	Driver   printer.Driver

	// Dump, if set, is the path the rendered image is written to as a PNG before it is normalized.
	Dump string
}

// Render turns content into a canvas. Nothing is sent to the printer.
func (p *Printer) Render(content string, mode Mode) (*canvas.Canvas, error) {
	var img *image.Gray
	var err error
	switch mode {
	case Text:
		img, err = p.Renderer.Text(content)
	case Barcode:
		img, err = p.Renderer.Symbol(content)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
	if err != nil {
		return nil, err
	}

	if p.Dump != "" {
		if err := dump(p.Dump, img); err != nil {
			return nil, fmt.Errorf("error writing '%v': %w", p.Dump, err)
		}
	}

	return canvas.Build(bitmap.Normalize(img, canvas.MaxHeight))
}

// Print renders content and prints it in a new session. Rendering failures return before the printer is touched.
func (p *Printer) Print(ctx context.Context, content string, mode Mode) error {
	c, err := p.Render(content, mode)
	if err != nil {
		return err
	}
	logger.Info("Rendered label", zap.String("mode", string(mode)), zap.Stringer("canvas", c), zap.Int("ink", c.Count()))
	return printer.Print(ctx, p.Driver, c)
}

func dump(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
