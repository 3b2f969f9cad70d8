// Package detector provides hand landmark detection for the air drawing
// pipeline.
package detector

import "github.com/ayusman/airpaint/internal/gesture"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark position. X and Y are normalized to the frame
// (0..1); Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Projection maps normalized landmarks onto a canvas.
type Projection struct {
	Width  float64
	Height float64
	Mirror bool // flip horizontally, for a selfie-view camera
}

// Project converts a normalized landmark to canvas pixels.
func (p Projection) Project(pt Point3D) gesture.Point {
	x := pt.X
	if p.Mirror {
		x = 1 - x
	}
	return gesture.Point{X: x * p.Width, Y: pt.Y * p.Height}
}

// Pixel returns landmark i of the hand in canvas pixels.
func (h *HandLandmarks) Pixel(i int, p Projection) gesture.Point {
	return p.Project(h.Points[i])
}
