package font

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	woff "github.com/tdewolff/canvas/font"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/pgavlin/letratag/internal/logger"
	"github.com/pgavlin/letratag/internal/util"
)

// ErrUnavailable reports that a requested font could not be loaded. Resolve recovers from it by falling back to
// Fallback, so callers outside this package never see it.
var ErrUnavailable = errors.New("font unavailable")

// Fallback is the builtin bitmap face used when the requested font cannot be loaded.
var Fallback font.Face = basicfont.Face7x13

// Options are the rasterization options for every face. Label pixels are treated as points.
var Options = truetype.Options{DPI: 72, SubPixelsX: 1}

// DefaultSource names the builtin face used when no font is configured.
const DefaultSource = "goregular"

var builtins = map[string][2][]byte{
	"goregular": {goregular.TTF, gobold.TTF},
	"gobold":    {gobold.TTF, gobold.TTF},
	"gomono":    {gomono.TTF, gomonobold.TTF},
}

// Load reads the TTF data named by source: a builtin name, an http(s) URL, or a file path. WOFF data is
// converted to SFNT.
func Load(source string) (regular, bold []byte, err error) {
	if b, ok := builtins[source]; ok {
		return b[0], b[1], nil
	}

	var data []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, _, err = util.DownloadFile(source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if sfnt, err := woff.ToSFNT(data); err == nil {
		data = sfnt
	}
	return data, nil, nil
}

// LoadFamily loads and parses the family named by source.
func LoadFamily(source string) (*Family, error) {
	regular, bold, err := Load(source)
	if err != nil {
		return nil, err
	}
	family, err := ParseFamily(regular, bold, Options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return family, nil
}

// Resolve returns the face for source at the given size, or Fallback if source cannot be loaded.
func Resolve(source string, pointSize float64, bold bool) font.Face {
	if source == "" {
		source = DefaultSource
	}
	family, err := LoadFamily(source)
	if err != nil {
		logger.Warn("Font unavailable, using builtin bitmap font", zap.String("font", source), zap.Error(err))
		return Fallback
	}
	return family.Face(pointSize, bold)
}
