package stroke

import (
	"sync"

	"github.com/ayusman/airpaint/internal/gesture"
)

// Segment is a painted line recorded by a Recorder.
type Segment struct {
	From  gesture.Point
	To    gesture.Point
	Style Style
}

// Recorder is a Surface that keeps the segments painted since the last
// Clear. It backs tests and headless runs.
type Recorder struct {
	mu       sync.Mutex
	segments []Segment
	clears   int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Line records a segment.
func (r *Recorder) Line(from, to gesture.Point, style Style) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, Segment{From: from, To: to, Style: style})
}

// Clear drops all recorded segments.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = nil
	r.clears++
}

// Segments returns a copy of the recorded segments.
func (r *Recorder) Segments() []Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

// Clears returns how many times Clear was called.
func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
