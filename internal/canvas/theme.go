package canvas

import (
	"fmt"
	"image/color"

	"github.com/starford/onepage/internal/apperr"
)

// Theme is the named colour variant applied to a box.
type Theme string

// Box themes.
const (
	ThemeGrey    Theme = "grey"
	ThemeNavy    Theme = "navy"
	ThemeTeal    Theme = "teal"
	ThemeWhite   Theme = "white"
	ThemeMidblue Theme = "midblue"
	ThemeSkyblue Theme = "skyblue"
)

// Themes lists every theme in picker order.
var Themes = []Theme{ThemeWhite, ThemeGrey, ThemeSkyblue, ThemeNavy, ThemeMidblue, ThemeTeal}

// Palette holds the colours used to paint a box.
type Palette struct {
	Background color.RGBA
	Text       color.RGBA
	Title      color.RGBA
	Bullet     color.RGBA
}

var (
	colorNavy    = color.RGBA{R: 0x1e, G: 0x3a, B: 0x5f, A: 0xff}
	colorTeal    = color.RGBA{R: 0x1d, G: 0xb6, B: 0xac, A: 0xff}
	colorWhite   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorGray700 = color.RGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff}
)

var palettes = map[Theme]Palette{
	ThemeGrey:    {Background: color.RGBA{R: 0xef, G: 0xf0, B: 0xf0, A: 0xff}, Text: colorGray700, Title: colorNavy, Bullet: colorTeal},
	ThemeNavy:    {Background: colorNavy, Text: colorWhite, Title: colorWhite, Bullet: colorTeal},
	ThemeTeal:    {Background: colorTeal, Text: colorWhite, Title: colorWhite, Bullet: colorWhite},
	ThemeWhite:   {Background: colorWhite, Text: colorGray700, Title: colorNavy, Bullet: colorTeal},
	ThemeMidblue: {Background: color.RGBA{R: 0x00, G: 0x26, B: 0x4a, A: 0xff}, Text: colorWhite, Title: colorWhite, Bullet: colorTeal},
	ThemeSkyblue: {Background: color.RGBA{R: 0xca, G: 0xf0, B: 0xf8, A: 0xff}, Text: colorGray700, Title: colorNavy, Bullet: colorTeal},
}

// CanvasBackground returns the page colour behind the boxes.
func CanvasBackground(dark bool) color.RGBA {
	if dark {
		return colorNavy
	}
	return colorWhite
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	_, ok := palettes[t]
	return ok
}

// Palette returns the colours for t. Unknown themes fall back to grey.
func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeGrey]
}

// Dark returns the theme t maps to when dark mode is switched on.
func (t Theme) Dark() Theme {
	switch t {
	case ThemeWhite:
		return ThemeNavy
	case ThemeNavy:
		return ThemeWhite
	case ThemeGrey:
		return ThemeMidblue
	}
	return t
}

// Light returns the theme t maps to when dark mode is switched off.
func (t Theme) Light() Theme {
	switch t {
	case ThemeNavy:
		return ThemeWhite
	case ThemeWhite:
		return ThemeNavy
	case ThemeMidblue:
		return ThemeGrey
	}
	return t
}

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("canvas: unknown theme %q: %w", s, apperr.ErrInvalid)
	}
	return t, nil
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
