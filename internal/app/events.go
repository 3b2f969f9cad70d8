package app

import (
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/gesture"
)

// FrameEvent carries the detector output for one video frame.
type FrameEvent struct {
	Hands []detector.HandLandmarks
	// Projection maps the landmarks to canvas pixels. A zero value uses the
	// controller's default projection.
	Projection detector.Projection
}

// TranscriptEvent is one speech recognition result or error.
type TranscriptEvent struct {
	Text  string
	Final bool
	// Err is a recognition error reported by the client. It is logged and
	// the event is otherwise ignored.
	Err string
}

// PointerPhase is the kind of a pointer event.
type PointerPhase string

const (
	PointerDown PointerPhase = "down"
	PointerMove PointerPhase = "move"
	PointerUp   PointerPhase = "up"
)

// ParsePointerPhase validates a phase name.
func ParsePointerPhase(s string) (PointerPhase, bool) {
	switch p := PointerPhase(s); p {
	case PointerDown, PointerMove, PointerUp:
		return p, true
	}
	return "", false
}

// PointerEvent is a mouse or touch event in canvas pixels. It drives the
// pen directly, without the classifier or smoother.
type PointerEvent struct {
	Phase PointerPhase
	Point gesture.Point
}
