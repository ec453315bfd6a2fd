package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Application constants
const (
	AppName    = "gasrisk"
	AppVersion = "1.0.0"

	// DateLayout is the layout of every date written in configuration.
	DateLayout = "2006-01-02"

	// File Paths (relative to base_dir)
	DefaultPriceFile  = "TTF_D1.xlsx"
	DefaultCarryFile  = "EURINTR.csv"
	DefaultOutputDir  = "outputs"
	DefaultLogsDir    = "logs"
	DefaultConfigFile = "config.yaml"
)

// NamedColors maps the color names accepted in event markers.
var NamedColors = map[string]color.RGBA{
	"black":      {A: 255},
	"red":        {R: 255, A: 255},
	"darkred":    {R: 139, A: 255},
	"orange":     {R: 255, G: 165, A: 255},
	"darkorange": {R: 255, G: 140, A: 255},
	"purple":     {R: 128, B: 128, A: 255},
	"blue":       {B: 255, A: 255},
	"steelblue":  {R: 70, G: 130, B: 180, A: 255},
	"green":      {G: 128, A: 255},
	"gray":       {R: 128, G: 128, B: 128, A: 255},
}

// ParseColor resolves a named color or a #rrggbb hex string.
func ParseColor(s string) (color.RGBA, error) {
	if c, ok := NamedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
