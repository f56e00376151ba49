package catprinter

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pgavlin/letratag/internal/printer"
)

func TestSortedHandles(t *testing.T) {
	devices := map[string]string{
		"C0:00:00:00:00:03": "MX10",
		"A0:00:00:00:00:01": "GB02",
		"B0:00:00:00:00:02": "",
	}
	want := []printer.Handle{
		{ID: "A0:00:00:00:00:01", Name: "GB02"},
		{ID: "B0:00:00:00:00:02"},
		{ID: "C0:00:00:00:00:03", Name: "MX10"},
	}
	if diff := cmp.Diff(want, sortedHandles(devices)); diff != "" {
		t.Errorf("handles (-want +got):\n%s", diff)
	}
	if len(sortedHandles(map[string]string{})) != 0 {
		t.Error("expected no handles")
	}
}

func TestNewDefaults(t *testing.T) {
	d := New(Config{})
	if d.config.ScanWindow != DefaultScanWindow || d.opts == nil {
		t.Errorf("unexpected driver %+v", d)
	}
	// Disconnecting without a client is a no-op.
	if err := d.Disconnect(context.Background(), printer.Handle{}); err != nil {
		t.Error(err)
	}
}
