package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrames is returned by MockCamera when playback is exhausted.
var ErrNoFrames = errors.New("no more frames")

// MockCamera plays back frames for tests. With no frames it produces blank
// frames of the configured size.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	width   int
	height  int
	fps     int
	reads   int
	mu      sync.Mutex
	running bool
}

// NewMockCamera plays frames in order, restarting when loop is set.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	c := &MockCamera{frames: frames, loop: loop, width: DefaultWidth, height: DefaultHeight, fps: DefaultFPS}
	if len(frames) > 0 {
		c.width, c.height = frames[0].Cols(), frames[0].Rows()
	}
	return c
}

// NewBlankCamera produces black frames of the given size forever.
func NewBlankCamera(width, height int) *MockCamera {
	return &MockCamera{width: width, height: height, fps: DefaultFPS, loop: true}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	c.reads++

	if len(c.frames) == 0 {
		frame := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
		return &frame, nil
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrNoFrames
		}
		c.index = 0
	}

	// Clone so callers can close their copy.
	frame := c.frames[c.index].Clone()
	c.index++
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns how many frames have been requested.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Reset restarts playback from the beginning.
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
