package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	motionBlurSize  = 21
	motionDiffLevel = 25
	// DefaultIdleAfter is how long a still scene lasts before capture slows.
	DefaultIdleAfter = 2 * time.Second
)

// MotionDetector reports the share of pixels that changed between
// consecutive frames, after grayscale conversion and blur.
type MotionDetector struct {
	threshold float64
	prev      gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionDetector returns a detector that reports motion when more than
// threshold percent of pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect compares frame against the previous one. The first frame after
// construction or Reset only primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (moved bool, changed float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(motionBlurSize, motionBlurSize), 0, 0, gocv.BorderDefault)

	if !m.primed || m.prev.Rows() != gray.Rows() || m.prev.Cols() != gray.Cols() {
		gray.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prev, &diff)
	gocv.Threshold(diff, &diff, motionDiffLevel, 255, gocv.ThresholdBinary)

	changed = float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	gray.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the baseline frame. The detector may be reused afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// Throttle picks a capture rate from scene activity: the active rate while
// something moves, the idle rate once the scene has been still for a while.
type Throttle struct {
	motion    *MotionDetector
	idleFPS   int
	activeFPS int
	idleAfter time.Duration
	lastMove  time.Time
	active    bool
}

// NewThrottle starts in the active state so the first hand is not missed.
func NewThrottle(motion *MotionDetector, idleFPS, activeFPS int, idleAfter time.Duration) *Throttle {
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	return &Throttle{
		motion:    motion,
		idleFPS:   idleFPS,
		activeFPS: activeFPS,
		idleAfter: idleAfter,
		lastMove:  time.Now(),
		active:    true,
	}
}

// Observe feeds a frame captured at now and returns the rate to use next.
func (t *Throttle) Observe(frame *gocv.Mat, now time.Time) int {
	if moved, _ := t.motion.Detect(frame); moved {
		t.lastMove = now
		t.active = true
	} else if t.active && now.Sub(t.lastMove) > t.idleAfter {
		t.active = false
	}
	return t.FPS()
}

// FPS returns the current rate.
func (t *Throttle) FPS() int {
	if t.active {
		return t.activeFPS
	}
	return t.idleFPS
}

// Active reports whether the scene is considered in motion.
func (t *Throttle) Active() bool {
	return t.active
}

// Close releases the motion detector.
func (t *Throttle) Close() {
	t.motion.Close()
}
