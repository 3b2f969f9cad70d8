// Package palette holds the ordered brush colors and the geometry of the
// half-circle palette wheel.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrEmpty is returned when a palette is built with no colors.
var ErrEmpty = errors.New("palette has no colors")

// DefaultColors is the color cycle used when none is configured.
var DefaultColors = []string{"red", "white", "purple", "green"}

// named maps the accepted color names to RGB values.
var named = map[string]color.RGBA{
	"red":    {R: 255, A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"purple": {R: 128, B: 128, A: 255},
	"green":  {G: 128, A: 255},
	"blue":   {B: 255, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
	"cyan":   {G: 255, B: 255, A: 255},
	"orange": {R: 255, G: 165, A: 255},
	"pink":   {R: 255, G: 192, B: 203, A: 255},
	"lime":   {G: 255, A: 255},
}

// Color is a palette entry.
type Color struct {
	Name string
	RGBA color.RGBA
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.RGBA.R, c.RGBA.G, c.RGBA.B)
}

// ParseColor resolves a color name or a #rrggbb string.
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if rgba, ok := named[name]; ok {
		return Color{Name: name, RGBA: rgba}, nil
	}

	if strings.HasPrefix(name, "#") && len(name) == 7 {
		v, err := strconv.ParseUint(name[1:], 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return Color{
			Name: name,
			RGBA: color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255},
		}, nil
	}

	return Color{}, fmt.Errorf("unknown color %q", s)
}

// Palette is a fixed, ordered set of colors with a current selection.
type Palette struct {
	colors []Color
	index  int
}

// New builds a palette from color names or hex values. The first color is
// selected.
func New(names []string) (*Palette, error) {
	if len(names) == 0 {
		return nil, ErrEmpty
	}

	colors := make([]Color, 0, len(names))
	for _, n := range names {
		c, err := ParseColor(n)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}

	return &Palette{colors: colors}, nil
}

// Default returns a palette with DefaultColors.
func Default() *Palette {
	p, _ := New(DefaultColors)
	return p
}

// Len returns the number of colors.
func (p *Palette) Len() int {
	return len(p.colors)
}

// Index returns the index of the current color.
func (p *Palette) Index() int {
	return p.index
}

// Current returns the selected color.
func (p *Palette) Current() Color {
	return p.colors[p.index]
}

// At returns the color at index i.
func (p *Palette) At(i int) Color {
	return p.colors[i]
}

// Colors returns a copy of all colors in order.
func (p *Palette) Colors() []Color {
	out := make([]Color, len(p.colors))
	copy(out, p.colors)
	return out
}

// Advance selects the next color, wrapping after the last one, and returns
// it.
func (p *Palette) Advance() Color {
	p.index = (p.index + 1) % len(p.colors)
	return p.Current()
}

// Select makes color i current. Out of range indices are ignored and false
// is returned.
func (p *Palette) Select(i int) bool {
	if i < 0 || i >= len(p.colors) {
		return false
	}
	p.index = i
	return true
}
