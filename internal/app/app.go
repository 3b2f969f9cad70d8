package app

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/detector"
)

// Config wires the capture loop.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Controller *Controller
	// Throttle lowers the capture rate while the scene is still. Optional.
	Throttle *capture.Throttle
}

// App reads camera frames, runs hand detection, and feeds the controller.
type App struct {
	config Config
	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}

	frameMu  sync.RWMutex
	latest   gocv.Mat
	hasFrame bool
}

// New creates an App. Nothing runs until Start.
func New(config Config) *App {
	return &App{config: config, latest: gocv.NewMat()}
}

// Start opens the camera and begins the capture loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	w, h := a.config.Camera.Size()
	log.Info("capture started", "width", w, "height", h, "fps", a.config.Camera.FPS())
	return nil
}

// Stop halts the capture loop and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		<-a.done
		a.stopCh = nil
	}

	if err := a.config.Camera.Close(); err != nil {
		log.Warn("error closing camera", "error", err)
	}
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			log.Warn("error closing detector", "error", err)
		}
	}
	if a.config.Throttle != nil {
		a.config.Throttle.Close()
	}

	a.frameMu.Lock()
	a.hasFrame = false
	a.frameMu.Unlock()

	log.Info("capture stopped")
}

// Running reports whether the capture loop is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// Background copies the most recent camera frame into dst. It returns false
// when no frame has been captured yet.
func (a *App) Background(dst *gocv.Mat) bool {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	if !a.hasFrame {
		return false
	}
	a.latest.CopyTo(dst)
	return true
}

// Close releases the retained frame. Call after Stop.
func (a *App) Close() error {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	a.hasFrame = false
	return a.latest.Close()
}

func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := a.config.Camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			frame, err := a.config.Camera.ReadFrame()
			if err != nil {
				log.Warn("error reading frame", "error", err)
				continue
			}

			if a.config.Throttle != nil {
				if next := a.config.Throttle.Observe(frame, now); next != fps {
					fps = next
					a.config.Camera.SetFPS(fps)
					ticker.Reset(time.Second / time.Duration(fps))
					log.Debug("capture rate changed", "fps", fps, "active", a.config.Throttle.Active())
				}
			}

			a.processFrame(frame)
			frame.Close()
		}
	}
}

// processFrame keeps frame as the stream background and submits its hands
// to the controller. Frames arrive already mirrored when the camera is set
// up that way, so the landmarks are projected as-is.
func (a *App) processFrame(frame *gocv.Mat) {
	a.frameMu.Lock()
	frame.CopyTo(&a.latest)
	a.hasFrame = true
	a.frameMu.Unlock()

	if a.config.Detector == nil {
		return
	}

	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		log.Warn("error detecting hands", "error", err)
		return
	}

	proj := a.config.Controller.Projection()
	proj.Mirror = false
	a.config.Controller.SubmitFrame(FrameEvent{Hands: hands, Projection: proj})
}
