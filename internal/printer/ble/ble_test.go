package ble

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"tinygo.org/x/bluetooth"

	"github.com/pgavlin/letratag/internal/printer"
)

func TestCollector(t *testing.T) {
	c := newCollector("Letratag")

	adds := []struct {
		id, name string
		want     bool
	}{
		{"AA", "LetraTag 200B", true},
		{"BB", "Phone", false},
		{"AA", "LetraTag 200B", false},
		{"CC", "letratag-2", true},
		{"DD", "", false},
	}
	for _, a := range adds {
		if got := c.add(a.id, a.name); got != a.want {
			t.Errorf("add(%q, %q) = %v, want %v", a.id, a.name, got, a.want)
		}
	}

	want := []printer.Handle{{ID: "AA", Name: "LetraTag 200B"}, {ID: "CC", Name: "letratag-2"}}
	if diff := cmp.Diff(want, c.handles()); diff != "" {
		t.Errorf("handles (-want +got):\n%s", diff)
	}
}

func TestNewDefaults(t *testing.T) {
	d := New(Config{})
	want := Config{NamePrefix: DefaultNamePrefix, ScanWindow: DefaultScanWindow, ChunkSize: DefaultChunkSize}
	if d.config != want {
		t.Errorf("config = %+v", d.config)
	}

	d = New(Config{NamePrefix: "Dymo", ScanWindow: time.Second, ChunkSize: 180})
	if d.config.NamePrefix != "Dymo" || d.config.ScanWindow != time.Second || d.config.ChunkSize != 180 {
		t.Errorf("config = %+v", d.config)
	}
}

// lateAdapter starts scanning after a delay and ignores stop requests that arrive before then.
type lateAdapter struct {
	delay time.Duration

	mu       sync.Mutex
	scanning bool
	scans    int
	stopped  chan struct{}
}

func newLateAdapter(delay time.Duration) *lateAdapter {
	return &lateAdapter{delay: delay, stopped: make(chan struct{})}
}

func (a *lateAdapter) Enable() error { return nil }

func (a *lateAdapter) Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	time.Sleep(a.delay)
	a.mu.Lock()
	a.scanning = true
	a.scans++
	a.mu.Unlock()
	<-a.stopped
	return nil
}

func (a *lateAdapter) StopScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.scanning {
		return errors.New("not scanning")
	}
	a.scanning = false
	close(a.stopped)
	return nil
}

func (a *lateAdapter) Connect(address bluetooth.Address, params bluetooth.ConnectionParams) (bluetooth.Device, error) {
	return bluetooth.Device{}, errors.New("no device")
}

func discoverWithin(t *testing.T, d *Driver, ctx context.Context, limit time.Duration) ([]printer.Handle, error) {
	t.Helper()
	type result struct {
		handles []printer.Handle
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		handles, err := d.Discover(ctx)
		ch <- result{handles, err}
	}()
	select {
	case r := <-ch:
		return r.handles, r.err
	case <-time.After(limit):
		t.Fatalf("Discover did not return within %v", limit)
		return nil, nil
	}
}

func TestDiscoverStopsLateScan(t *testing.T) {
	a := newLateAdapter(250 * time.Millisecond)
	d := New(Config{ScanWindow: time.Millisecond})
	d.adapter = a

	handles, err := discoverWithin(t, d, context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(handles) != 0 {
		t.Errorf("handles = %v, want none", handles)
	}
}

func TestDiscoverCanceledContext(t *testing.T) {
	a := newLateAdapter(0)
	d := New(Config{})
	d.adapter = a

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := discoverWithin(t, d, ctx, 5*time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if a.scans != 0 {
		t.Errorf("scanned %d times after cancellation", a.scans)
	}
}

func TestConnectUndiscovered(t *testing.T) {
	d := New(Config{})
	d.adapter = newLateAdapter(0)
	if err := d.Connect(context.Background(), printer.Handle{ID: "AA"}); err == nil {
		t.Error("expected an error connecting to an undiscovered printer")
	}
}
