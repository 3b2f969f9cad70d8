package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PinchLandmarks returns a right hand whose index fingertip sits at the
// normalized position (x, y) with the thumb tip touching it.
func PinchLandmarks(x, y float64) HandLandmarks {
	h := handAt(x, y)
	h.Points[ThumbIP] = Point3D{X: x + 0.03, Y: y + 0.05, Z: -0.01}
	h.Points[ThumbTip] = Point3D{X: x + 0.005, Y: y + 0.005, Z: -0.02}
	return h
}

// OpenHandLandmarks returns a right hand pointing with the index fingertip
// at (x, y) and the thumb spread well away from it.
func OpenHandLandmarks(x, y float64) HandLandmarks {
	h := handAt(x, y)
	h.Points[ThumbIP] = Point3D{X: x + 0.10, Y: y + 0.15, Z: 0.0}
	h.Points[ThumbTip] = Point3D{X: x + 0.15, Y: y + 0.12, Z: 0.0}
	return h
}

// handAt lays out an upright hand below an index fingertip at (x, y).
func handAt(x, y float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: x + 0.02, Y: y + 0.35, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: x + 0.06, Y: y + 0.30, Z: 0.0}
	h.Points[ThumbMCP] = Point3D{X: x + 0.08, Y: y + 0.22, Z: 0.0}

	h.Points[IndexMCP] = Point3D{X: x + 0.01, Y: y + 0.20, Z: 0.0}
	h.Points[IndexPIP] = Point3D{X: x + 0.005, Y: y + 0.12, Z: 0.0}
	h.Points[IndexDIP] = Point3D{X: x + 0.002, Y: y + 0.06, Z: 0.0}
	h.Points[IndexTip] = Point3D{X: x, Y: y, Z: 0.0}

	// Remaining fingers curled toward the palm.
	for i, base := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		off := float64(i+1) * 0.03
		h.Points[base] = Point3D{X: x - off, Y: y + 0.21, Z: -0.02}
		h.Points[base+1] = Point3D{X: x - off, Y: y + 0.18, Z: -0.05}
		h.Points[base+2] = Point3D{X: x - off + 0.01, Y: y + 0.21, Z: -0.04}
		h.Points[base+3] = Point3D{X: x - off + 0.01, Y: y + 0.24, Z: -0.02}
	}

	return h
}
