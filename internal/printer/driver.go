// Package printer drives a label printer through a single discover, connect, transfer, disconnect session.
package printer

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgavlin/letratag/internal/canvas"
)

var (
	ErrNoDeviceFound     = errors.New("no printer found")
	ErrDiscoveryFailure  = errors.New("printer discovery failed")
	ErrConnectionFailure = errors.New("printer connection failed")
	ErrTransferFailure   = errors.New("printer transfer failed")
	ErrDisconnectFailure = errors.New("printer disconnect failed")
	ErrSessionUsed       = errors.New("print session already used")
)

// A Handle identifies a printer found by discovery. ID is meaningful only to the driver that returned it.
type Handle struct {
	ID   string
	Name string
}

func (h Handle) String() string {
	if h.Name == "" || h.Name == h.ID {
		return h.ID
	}
	return fmt.Sprintf("%s (%s)", h.Name, h.ID)
}

// A Driver is a printer transport: Bluetooth, serial, or simulated.
//
// Discover returns the printers currently available in a driver-defined order; an empty result is not an error.
// Transfer is only called between a successful Connect and the matching Disconnect.
type Driver interface {
	Discover(ctx context.Context) ([]Handle, error)
	Connect(ctx context.Context, h Handle) error
	Transfer(ctx context.Context, h Handle, c *canvas.Canvas) error
	Disconnect(ctx context.Context, h Handle) error
}
