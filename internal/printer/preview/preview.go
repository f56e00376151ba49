// Package preview implements a simulated printer that writes each label as a PNG image.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/printer"
)

// Margin is the blank tape, in canvas pixels, drawn around a label.
const Margin = 4

// Handle is the only printer the preview driver discovers.
var Handle = printer.Handle{ID: "preview", Name: "Preview"}

// A Driver "prints" by encoding the tape as a PNG to a writer, or to a file created on connect.
type Driver struct {
	path  string
	scale int

	w    io.Writer
	file *os.File
	last image.Image
}

// New returns a driver that writes to w.
func New(w io.Writer, scale int) *Driver {
	return &Driver{w: w, scale: scale}
}

// NewFile returns a driver that writes to the file at path, replacing it on every print.
func NewFile(path string, scale int) *Driver {
	return &Driver{path: path, scale: scale}
}

func (d *Driver) Discover(ctx context.Context) ([]printer.Handle, error) {
	return []printer.Handle{Handle}, nil
}

func (d *Driver) Connect(ctx context.Context, h printer.Handle) error {
	if h != Handle {
		return fmt.Errorf("preview: unknown printer %v", h)
	}
	if d.path == "" {
		return nil
	}
	f, err := os.Create(d.path)
	if err != nil {
		return err
	}
	d.file, d.w = f, f
	return nil
}

func (d *Driver) Transfer(ctx context.Context, h printer.Handle, c *canvas.Canvas) error {
	if d.w == nil {
		return fmt.Errorf("preview: not connected")
	}
	img := Render(c, d.scale)
	if err := png.Encode(d.w, img); err != nil {
		return err
	}
	d.last = img
	logger.Info("Wrote label preview", zap.String("path", d.path), zap.Stringer("bounds", img.Bounds()))
	return nil
}

func (d *Driver) Disconnect(ctx context.Context, h printer.Handle) error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.w = nil, nil
	return err
}

// Last returns the most recently printed preview, if any.
func (d *Driver) Last() image.Image {
	return d.last
}

// Render draws c on a strip of tape as tall as the print head and scales it up by scale.
func Render(c *canvas.Canvas, scale int) image.Image {
	tape := image.NewGray(image.Rect(0, 0, c.Width()+2*Margin, canvas.MaxHeight+2*Margin))
	draw.Draw(tape, tape.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	offset := image.Point{X: Margin, Y: Margin + (canvas.MaxHeight-c.Height())/2}
	draw.Draw(tape, c.Bounds().Add(offset), c, image.Point{}, draw.Src)

	if scale <= 1 {
		return tape
	}
	bounds := tape.Bounds()
	return resize.Resize(uint(bounds.Dx()*scale), uint(bounds.Dy()*scale), tape, resize.NearestNeighbor)
}
