package palette

import (
	"math"

	"github.com/ayusman/airpaint/internal/gesture"
)

// Wheel is a half circle hanging from Center and opening downward, split
// into Count equal wedges. Angles are in degrees, measured from the +X axis
// toward +Y in image coordinates, so the wedges span 0 to 180.
type Wheel struct {
	Center gesture.Point
	Radius float64
	Count  int
}

// NewWheel centers a wheel on the top edge of a canvas of the given width.
func NewWheel(width, radius float64, count int) Wheel {
	return Wheel{
		Center: gesture.Point{X: width / 2, Y: 0},
		Radius: radius,
		Count:  count,
	}
}

// Wedge returns the start and end angles of wedge i.
func (w Wheel) Wedge(i int) (start, end float64) {
	span := 180.0 / float64(w.Count)
	return float64(i) * span, float64(i+1) * span
}

// WedgeAt returns the wedge containing p, or false when p lies outside the
// wheel.
func (w Wheel) WedgeAt(p gesture.Point) (int, bool) {
	if w.Count <= 0 || w.Radius <= 0 {
		return 0, false
	}

	dx := p.X - w.Center.X
	dy := p.Y - w.Center.Y
	if dy < 0 || math.Hypot(dx, dy) > w.Radius {
		return 0, false
	}

	angle := math.Atan2(dy, dx) * 180 / math.Pi
	i := int(angle / (180.0 / float64(w.Count)))
	if i >= w.Count {
		i = w.Count - 1
	}
	return i, true
}
