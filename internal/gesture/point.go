// Package gesture turns hand landmarks into a stable drawing cursor and a
// pen-down decision.
package gesture

import "math"

// Point is a position in canvas pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Lerp moves from a toward b by the weight t.
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X*(1-t) + b.X*t,
		Y: a.Y*(1-t) + b.Y*t,
	}
}
