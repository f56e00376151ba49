// Package serial drives a label printer attached to a serial port.
package serial

import (
	"context"
	"fmt"
	"io"
	"os"

	tarm "github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/printer"
	"github.com/pgavlin/letratag/internal/printer/dymo"
)

// DefaultBaud is the line speed used when none is configured.
const DefaultBaud = 9600

type openFunc func(name string, baud int) (io.WriteCloser, error)

func openPort(name string, baud int) (io.WriteCloser, error) {
	return tarm.OpenPort(&tarm.Config{Name: name, Baud: baud})
}

// A Driver prints over one of a fixed list of serial ports. Discovery reports the ports that exist, in the
// configured order.
type Driver struct {
	ports []string
	baud  int
	open  openFunc

	conn io.WriteCloser
}

func New(ports []string, baud int) *Driver {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &Driver{ports: ports, baud: baud, open: openPort}
}

func (d *Driver) Discover(ctx context.Context) ([]printer.Handle, error) {
	var handles []printer.Handle
	for _, port := range d.ports {
		if _, err := os.Stat(port); err != nil {
			logger.Debug("Skipping serial port", zap.String("port", port), zap.Error(err))
			continue
		}
		handles = append(handles, printer.Handle{ID: port})
	}
	return handles, nil
}

func (d *Driver) Connect(ctx context.Context, h printer.Handle) error {
	if d.conn != nil {
		return fmt.Errorf("serial: already connected")
	}
	conn, err := d.open(h.ID, d.baud)
	if err != nil {
		return fmt.Errorf("error opening '%v': %w", h.ID, err)
	}
	d.conn = conn
	return nil
}

func (d *Driver) Transfer(ctx context.Context, h printer.Handle, c *canvas.Canvas) error {
	if d.conn == nil {
		return fmt.Errorf("serial: not connected")
	}
	job, err := dymo.Encode(c)
	if err != nil {
		return err
	}
	_, err = d.conn.Write(job)
	return err
}

func (d *Driver) Disconnect(ctx context.Context, h printer.Handle) error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
