package font

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// A Family is a parsed typeface with a regular and a bold variant. Faces are cached per point size.
type Family struct {
	options truetype.Options

	regularFont *truetype.Font
	boldFont    *truetype.Font

	faces map[faceKey]font.Face
}

type faceKey struct {
	pointSize float64
	bold      bool
}

// ParseFamily parses a family from TTF data. If bold is nil the regular typeface is used for both variants.
func ParseFamily(regular, bold []byte, options truetype.Options) (*Family, error) {
	regularFont, err := truetype.Parse(regular)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	boldFont := regularFont
	if bold != nil {
		if boldFont, err = truetype.Parse(bold); err != nil {
			return nil, fmt.Errorf("failed to parse bold font: %w", err)
		}
	}

	return &Family{
		options:     options,
		regularFont: regularFont,
		boldFont:    boldFont,
		faces:       map[faceKey]font.Face{},
	}, nil
}

// Face returns the face of the family at the given point size.
func (f *Family) Face(pointSize float64, bold bool) font.Face {
	key := faceKey{pointSize: pointSize, bold: bold}
	if face, ok := f.faces[key]; ok {
		return face
	}

	ttf := f.regularFont
	if bold {
		ttf = f.boldFont
	}
	opts := f.options
	opts.Size = pointSize
	face := truetype.NewFace(ttf, &opts)
	f.faces[key] = face
	return face
}
