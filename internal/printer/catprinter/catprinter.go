// Package catprinter drives BLE thermal "cat" printers through go-catprinter.
package catprinter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"git.massivebox.net/massivebox/go-catprinter"
	"go.uber.org/zap"

	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/printer"
)

const DefaultScanWindow = 10 * time.Second

type Config struct {
	Name       string        // Device name to scan for; empty matches every supported printer.
	ScanWindow time.Duration // Scan timeout.
	AutoRotate bool          // Rotate landscape labels to run along the paper.
}

// A Driver owns one go-catprinter client from discovery until disconnect. The client is released whenever the
// session ends, including when nothing was found or the connection failed.
type Driver struct {
	config Config
	opts   *catprinter.PrinterOptions

	client    *catprinter.Client
	connected bool
}

func New(config Config) *Driver {
	if config.ScanWindow <= 0 {
		config.ScanWindow = DefaultScanWindow
	}
	// Canvases are already 1-bit, so there is nothing to dither.
	opts := catprinter.NewOptions().
		SetBestQuality(true).
		SetDither(false).
		SetAutoRotate(config.AutoRotate).
		SetBlackPoint(0.5)
	return &Driver{config: config, opts: opts}
}

func (d *Driver) Discover(ctx context.Context) ([]printer.Handle, error) {
	d.release()

	logger.Info("Creating printer client")
	client, err := catprinter.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create catprinter client: %w", err)
	}
	client.Timeout = d.config.ScanWindow

	devices, err := client.ScanDevices(d.config.Name)
	if err != nil {
		client.Stop()
		return nil, fmt.Errorf("device scan failed: %w", err)
	}

	handles := sortedHandles(devices)
	if len(handles) == 0 {
		client.Stop()
		return nil, nil
	}
	d.client = client
	logger.Info("Device scan completed", zap.Int("device_count", len(handles)))
	return handles, nil
}

func (d *Driver) Connect(ctx context.Context, h printer.Handle) error {
	if d.client == nil {
		return errors.New("catprinter: no scan client")
	}
	logger.Info("Connecting to Bluetooth printer", zap.String("address", h.ID))
	if err := d.client.Connect(h.ID); err != nil {
		d.release()
		return fmt.Errorf("failed to connect to printer: %w", err)
	}
	d.connected = true
	return nil
}

func (d *Driver) Transfer(ctx context.Context, h printer.Handle, c *canvas.Canvas) error {
	if !d.connected {
		return errors.New("printer not connected")
	}
	if err := d.client.Print(c, d.opts, false); err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}
	return nil
}

func (d *Driver) Disconnect(ctx context.Context, h printer.Handle) error {
	d.release()
	return nil
}

func (d *Driver) release() {
	if d.client == nil {
		return
	}
	if d.connected {
		logger.Info("Disconnecting Bluetooth printer")
		d.client.Disconnect()
		d.connected = false
	}
	d.client.Stop()
	d.client = nil
}

// sortedHandles orders scan results by address; the scan itself reports them unordered.
func sortedHandles[N ~string](devices map[string]N) []printer.Handle {
	handles := make([]printer.Handle, 0, len(devices))
	for mac, name := range devices {
		handles = append(handles, printer.Handle{ID: mac, Name: string(name)})
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].ID < handles[j].ID })
	return handles
}
