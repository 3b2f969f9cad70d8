package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	if w, h := cam.Size(); w != 640 || h != 480 {
		t.Errorf("expected size from frames 640x480, got %dx%d", w, h)
	}

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames after playback, got %v", err)
	}
	if cam.Reads() != 3 {
		t.Errorf("expected 3 reads, got %d", cam.Reads())
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_NotOpen(t *testing.T) {
	cam := NewBlankCamera(32, 24)
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen, got %v", err)
	}
}

func TestBlankCamera(t *testing.T) {
	cam := NewBlankCamera(32, 24)
	cam.Open()
	defer cam.Close()

	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer f.Close()

	if f.Cols() != 32 || f.Rows() != 24 {
		t.Errorf("expected 32x24, got %dx%d", f.Cols(), f.Rows())
	}
	if f.Channels() != 3 {
		t.Errorf("expected 3 channels, got %d", f.Channels())
	}
}

func TestMockCamera_SetFPS(t *testing.T) {
	cam := NewBlankCamera(8, 8)
	cam.SetFPS(12)
	cam.SetFPS(0)
	if cam.FPS() != 12 {
		t.Errorf("expected 12, got %d", cam.FPS())
	}
}
