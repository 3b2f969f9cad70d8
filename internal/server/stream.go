package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/canvas"
)

// DefaultStreamInterval paces the MJPEG stream at about 15 FPS.
const DefaultStreamInterval = 66 * time.Millisecond

// StreamHandler serves MJPEG frames of the camera, strokes and overlay.
type StreamHandler struct {
	canvas     *canvas.Canvas
	overlay    *canvas.Overlay
	background Background
	interval   time.Duration
}

// NewStreamHandler creates a StreamHandler. overlay and background may be
// nil.
func NewStreamHandler(c *canvas.Canvas, o *canvas.Overlay, bg Background) *StreamHandler {
	return &StreamHandler{
		canvas:     c,
		overlay:    o,
		background: bg,
		interval:   DefaultStreamInterval,
	}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bg := gocv.NewMat()
	defer bg.Close()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		var background *gocv.Mat
		if h.background != nil && h.background.Background(&bg) {
			background = &bg
		}

		buf, err := canvas.EncodeJPEG(background, h.canvas, h.overlay)
		if err != nil {
			log.Warn("failed to encode stream frame", "error", err)
		} else if err := writePart(w, buf); err != nil {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
