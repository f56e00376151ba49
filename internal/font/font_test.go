package font

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestResolveBuiltin(t *testing.T) {
	face := Resolve("", 28, false)
	if face == Fallback {
		t.Fatal("default font fell back to the bitmap face")
	}
	if h := face.Metrics().Height.Ceil(); h < 28 {
		t.Errorf("line height %d is smaller than the point size", h)
	}
}

func TestResolveFallsBack(t *testing.T) {
	if face := Resolve(filepath.Join(t.TempDir(), "arial.ttf"), 28, false); face != Fallback {
		t.Error("missing font did not fall back")
	}

	garbage := filepath.Join(t.TempDir(), "garbage.ttf")
	if err := os.WriteFile(garbage, []byte("not a font"), 0o600); err != nil {
		t.Fatal(err)
	}
	if face := Resolve(garbage, 28, false); face != Fallback {
		t.Error("unparseable font did not fall back")
	}
}

func TestLoadFamilyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o600); err != nil {
		t.Fatal(err)
	}

	family, err := LoadFamily(path)
	if err != nil {
		t.Fatalf("LoadFamily() failed: %v", err)
	}
	if family.Face(12, false) != family.Face(12, false) {
		t.Error("faces are not cached")
	}
	if family.Face(12, true) == nil {
		t.Error("bold face missing")
	}
}

func TestLoadMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.ttf"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}
