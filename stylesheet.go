package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pgavlin/letratag/internal/env"
	"github.com/pgavlin/letratag/internal/font"
	"github.com/pgavlin/letratag/internal/renderer"
)

type styleSheet struct {
	Font        string  `json:"font,omitempty"`
	PointSize   float64 `json:"pointSize,omitempty"`
	Bold        bool    `json:"bold,omitempty"`
	Symbology   string  `json:"symbology,omitempty"`
	ModuleWidth int     `json:"moduleWidth,omitempty"`
	BarHeight   int     `json:"barHeight,omitempty"`
	QuietZone   *int    `json:"quietZone,omitempty"`
}

type style struct {
	font      string
	pointSize float64
	bold      bool
	symbology string
	symbol    renderer.SymbolOptions
}

func styleFromEnv(v env.Config) style {
	return style{
		font:      v.Font,
		pointSize: v.PointSize,
		symbology: v.Symbology,
		symbol: renderer.SymbolOptions{
			ModuleWidth: v.ModuleWidth,
			BarHeight:   v.BarHeight,
			QuietZone:   v.QuietZone,
		},
	}
}

func loadStylesheet(path string, defaults style) (style, error) {
	f, err := os.Open(path)
	if err != nil {
		return style{}, err
	}
	defer f.Close()

	var sheet styleSheet
	if err = json.NewDecoder(f).Decode(&sheet); err != nil {
		return style{}, err
	}

	result := defaults
	if sheet.Font != "" {
		result.font = sheet.Font
	}
	if sheet.PointSize != 0 {
		result.pointSize = sheet.PointSize
	}
	if sheet.Bold {
		result.bold = true
	}
	if sheet.Symbology != "" {
		result.symbology = sheet.Symbology
	}
	if sheet.ModuleWidth != 0 {
		result.symbol.ModuleWidth = sheet.ModuleWidth
	}
	if sheet.BarHeight != 0 {
		result.symbol.BarHeight = sheet.BarHeight
	}
	if sheet.QuietZone != nil {
		result.symbol.QuietZone = *sheet.QuietZone
	}
	return result, nil
}

// renderer resolves the style's font, falling back to the builtin bitmap face, and its symbology.
func (s style) renderer() (*renderer.Renderer, error) {
	symbology, err := renderer.ParseSymbology(s.symbology)
	if err != nil {
		return nil, err
	}
	if s.pointSize <= 0 {
		return nil, fmt.Errorf("point size must be positive, got %v", s.pointSize)
	}
	face := font.Resolve(s.font, s.pointSize, s.bold)
	return renderer.New(face, symbology, s.symbol), nil
}
