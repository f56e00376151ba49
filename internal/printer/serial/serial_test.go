package serial

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pgavlin/letratag/internal/bitmap"
	"github.com/pgavlin/letratag/internal/canvas"
	"github.com/pgavlin/letratag/internal/printer"
	"github.com/pgavlin/letratag/internal/printer/dymo"
)

type fakePort struct {
	bytes.Buffer
	closed bool
	err    error
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.Buffer.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testCanvas(t *testing.T) *canvas.Canvas {
	t.Helper()
	b := bitmap.New(image.Rect(0, 0, 4, 4))
	b.SetInk(1, 1, true)
	c, err := canvas.Build(b)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDiscoverExistingPortsInOrder(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, dir, "ttyB")
	a := touch(t, dir, "ttyA")
	d := New([]string{b, filepath.Join(dir, "missing"), a}, 0)

	handles, err := d.Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []printer.Handle{{ID: b}, {ID: a}}
	if diff := cmp.Diff(want, handles); diff != "" {
		t.Errorf("handles (-want +got):\n%s", diff)
	}
}

func TestPrintWritesJob(t *testing.T) {
	port := &fakePort{}
	var opened string
	d := New([]string{touch(t, t.TempDir(), "ttyUSB0")}, 0)
	d.open = func(name string, baud int) (io.WriteCloser, error) {
		if baud != DefaultBaud {
			t.Errorf("baud = %d", baud)
		}
		opened = name
		return port, nil
	}

	c := testCanvas(t)
	if err := printer.Print(context.Background(), d, c); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}
	if opened != d.ports[0] {
		t.Errorf("opened %q", opened)
	}
	job, _ := dymo.Encode(c)
	if !bytes.Equal(port.Bytes(), job) {
		t.Error("port did not receive the encoded job")
	}
	if !port.closed {
		t.Error("port was not closed")
	}
}

func TestWriteFailureClosesPort(t *testing.T) {
	port := &fakePort{err: errors.New("cable unplugged")}
	d := New([]string{touch(t, t.TempDir(), "ttyUSB0")}, 0)
	d.open = func(string, int) (io.WriteCloser, error) { return port, nil }

	err := printer.Print(context.Background(), d, testCanvas(t))
	if !errors.Is(err, printer.ErrTransferFailure) {
		t.Fatalf("Print() = %v, want ErrTransferFailure", err)
	}
	if !port.closed {
		t.Error("port was not closed after a failed write")
	}
}

func TestNoPorts(t *testing.T) {
	d := New([]string{filepath.Join(t.TempDir(), "none")}, 0)
	if err := printer.Print(context.Background(), d, testCanvas(t)); !errors.Is(err, printer.ErrNoDeviceFound) {
		t.Errorf("Print() = %v, want ErrNoDeviceFound", err)
	}
}
