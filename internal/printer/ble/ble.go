// Package ble drives a DYMO LetraTag printer over Bluetooth Low Energy.
//
// This package assumes one connected printer at a time per Driver.
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/printer"
	"github.com/pgavlin/letratag/internal/printer/dymo"
)

const (
	DefaultNamePrefix = "Letratag"
	DefaultScanWindow = 5 * time.Second

	// DefaultChunkSize fits the payload of the smallest ATT MTU.
	DefaultChunkSize = 20
)

var (
	serviceUUID = mustParseUUID("be3dd650-2b3d-42f1-99c1-f0f749dd0678")
	printUUID   = mustParseUUID("be3dd651-2b3d-42f1-99c1-f0f749dd0678")
)

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return uuid
}

type Config struct {
	NamePrefix string        // Advertised local name prefix of matching printers.
	ScanWindow time.Duration // How long discovery listens for advertisements.
	ChunkSize  int           // Bytes per write.
}

// adapter is the subset of *bluetooth.Adapter the driver uses.
type adapter interface {
	Enable() error
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
	Connect(address bluetooth.Address, params bluetooth.ConnectionParams) (bluetooth.Device, error)
}

// stopInterval is how often a pending scan is asked to stop until it does.
const stopInterval = 100 * time.Millisecond

// A Driver scans for advertising printers and writes print jobs to the print characteristic.
type Driver struct {
	adapter adapter
	config  Config

	enableOnce sync.Once
	enableErr  error

	mu    sync.Mutex
	found map[string]bluetooth.Address

	device    bluetooth.Device
	writer    bluetooth.DeviceCharacteristic
	connected bool
}

func New(config Config) *Driver {
	if config.NamePrefix == "" {
		config.NamePrefix = DefaultNamePrefix
	}
	if config.ScanWindow <= 0 {
		config.ScanWindow = DefaultScanWindow
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	return &Driver{
		adapter: bluetooth.DefaultAdapter,
		config:  config,
		found:   map[string]bluetooth.Address{},
	}
}

func (d *Driver) enable() error {
	d.enableOnce.Do(func() {
		if err := d.adapter.Enable(); err != nil {
			d.enableErr = fmt.Errorf("failed to enable Bluetooth: %w", err)
		}
	})
	return d.enableErr
}

// Discover listens for advertisements for the scan window, or until ctx is done, and returns matching printers in
// the order they were first seen.
func (d *Driver) Discover(ctx context.Context) ([]printer.Handle, error) {
	if err := d.enable(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := newCollector(d.config.NamePrefix)
	done := make(chan struct{})
	defer close(done)
	go func() {
		timer := time.NewTimer(d.config.ScanWindow)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		case <-done:
			return
		}

		// StopScan fails if Scan has not started yet, so keep asking until Scan returns.
		ticker := time.NewTicker(stopInterval)
		defer ticker.Stop()
		for {
			if err := d.adapter.StopScan(); err != nil {
				logger.Debug("Failed to stop Bluetooth scan", zap.Error(err))
			}
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	logger.Info("Scanning for printers", zap.String("prefix", d.config.NamePrefix), zap.Duration("window", d.config.ScanWindow))
	err := d.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		id := result.Address.String()
		if !seen.add(id, result.LocalName()) {
			return
		}
		d.mu.Lock()
		d.found[id] = result.Address
		d.mu.Unlock()
		logger.Info("Found printer", zap.String("name", result.LocalName()), zap.String("address", id))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan for devices: %w", err)
	}
	return seen.handles(), nil
}

func (d *Driver) Connect(ctx context.Context, h printer.Handle) error {
	if d.connected {
		return errors.New("ble: already connected")
	}
	d.mu.Lock()
	address, ok := d.found[h.ID]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("ble: %v was not discovered", h)
	}

	logger.Debug("Connecting to device...", zap.String("address", h.ID))
	device, err := d.adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return err
	}

	logger.Debug("Discovering service...")
	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil || len(services) == 0 {
		device.Disconnect()
		return fmt.Errorf("failed to discover print service: %v", err)
	}

	logger.Debug("Discovering characteristics...")
	characteristics, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{printUUID})
	if err != nil || len(characteristics) == 0 {
		device.Disconnect()
		return fmt.Errorf("failed to discover print characteristic: %v", err)
	}

	d.device, d.writer, d.connected = device, characteristics[0], true
	return nil
}

func (d *Driver) Transfer(ctx context.Context, h printer.Handle, c *canvas.Canvas) error {
	if !d.connected {
		return errors.New("ble: not connected")
	}
	job, err := dymo.Encode(c)
	if err != nil {
		return err
	}

	for _, chunk := range dymo.Chunks(job, d.config.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.writer.WriteWithoutResponse(chunk); err != nil {
			return err
		}
	}
	logger.Debug("Wrote data to device", zap.Int("size", len(job)))
	return nil
}

func (d *Driver) Disconnect(ctx context.Context, h printer.Handle) error {
	if !d.connected {
		return nil
	}
	d.connected = false
	return d.device.Disconnect()
}

// collector records matching advertisements once each, in arrival order.
type collector struct {
	prefix string

	mu    sync.Mutex
	seen  map[string]bool
	found []printer.Handle
}

func newCollector(prefix string) *collector {
	return &collector{prefix: prefix, seen: map[string]bool{}}
}

// add records a device and reports whether it is a new match.
func (c *collector) add(id, name string) bool {
	if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(c.prefix)) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[id] {
		return false
	}
	c.seen[id] = true
	c.found = append(c.found, printer.Handle{ID: id, Name: name})
	return true
}

func (c *collector) handles() []printer.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]printer.Handle(nil), c.found...)
}
