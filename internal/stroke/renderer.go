// Package stroke implements the pen state machine that turns cursor updates
// into styled line segments on a drawing surface.
package stroke

import (
	"image/color"

	"github.com/ayusman/airpaint/internal/gesture"
)

// Default brush parameters.
const (
	DefaultWidth = 8.0
	DefaultGlow  = 15.0
)

// Style describes how a segment is painted. Segments always use round caps.
type Style struct {
	Color     color.RGBA
	Width     float64
	Glow      float64    // blur radius of the glow halo; zero disables it
	GlowColor color.RGBA // halo color; a zero value means Color
}

// HaloColor returns the color used for the glow halo.
func (s Style) HaloColor() color.RGBA {
	if s.GlowColor == (color.RGBA{}) {
		return s.Color
	}
	return s.GlowColor
}

// Surface is a persistent drawing target.
type Surface interface {
	// Line paints a segment from one point to another.
	Line(from, to gesture.Point, style Style)

	// Clear wipes the entire surface.
	Clear()
}

// State is the pen state.
type State int

const (
	// Idle means the pen is up.
	Idle State = iota
	// Drawing means the pen is down and a path is open.
	Drawing
)

func (s State) String() string {
	if s == Drawing {
		return "DRAWING"
	}
	return "IDLE"
}

// Transition reports what an update did.
type Transition int

const (
	// None means the pen stayed up.
	None Transition = iota
	// Began means a new path was opened at the cursor.
	Began
	// Extended means a segment was painted.
	Extended
	// Ended means the open path was closed without painting.
	Ended
)

// Pen is the drawing flag plus the last painted position. Last is only
// meaningful while Drawing is true.
type Pen struct {
	Drawing bool
	Last    gesture.Point
}

// Renderer drives a Surface from pen-down/pen-up updates.
type Renderer struct {
	surface Surface
	style   Style
	scale   float64
	pen     Pen
}

// NewRenderer creates a Renderer painting onto surface with the given
// style.
func NewRenderer(surface Surface, style Style) *Renderer {
	return &Renderer{
		surface: surface,
		style:   style,
		scale:   1,
	}
}

// Pen returns the current pen state.
func (r *Renderer) Pen() Pen {
	return r.pen
}

// State returns Drawing while a path is open.
func (r *Renderer) State() State {
	if r.pen.Drawing {
		return Drawing
	}
	return Idle
}

// Style returns the style applied to new segments, including the width
// scale.
func (r *Renderer) Style() Style {
	s := r.style
	s.Width *= r.scale
	return s
}

// SetColor changes the color of subsequent segments.
func (r *Renderer) SetColor(c color.RGBA) {
	r.style.Color = c
}

// SetWidthScale multiplies the brush width of subsequent segments.
// Non-positive values reset the scale to 1.
func (r *Renderer) SetWidthScale(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	r.scale = scale
}

// Update advances the state machine. down is the pen-down decision for this
// frame and pos the cursor position.
func (r *Renderer) Update(down bool, pos gesture.Point) Transition {
	switch {
	case down && !r.pen.Drawing:
		r.pen = Pen{Drawing: true, Last: pos}
		return Began
	case down:
		r.surface.Line(r.pen.Last, pos, r.Style())
		r.pen.Last = pos
		return Extended
	default:
		return r.Lift()
	}
}

// Lift ends the open path, if any, without painting.
func (r *Renderer) Lift() Transition {
	if !r.pen.Drawing {
		return None
	}
	r.pen = Pen{}
	return Ended
}

// Clear wipes the surface and ends the open path.
func (r *Renderer) Clear() {
	r.surface.Clear()
	r.Lift()
}
