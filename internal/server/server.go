// Package server provides the HTTP server for the airpaint drawing service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/server/api"
	"github.com/ayusman/airpaint/internal/store"
)

// shutdownTimeout bounds how long Run waits for open requests on exit.
const shutdownTimeout = 5 * time.Second

// Controller is the part of app.Controller the server drives.
type Controller interface {
	api.Controller
	OnChange(fn func(app.State))
	Projection() detector.Projection
	SubmitFrame(ev app.FrameEvent)
	SubmitTranscript(ctx context.Context, ev app.TranscriptEvent) error
	SubmitPointer(ctx context.Context, ev app.PointerEvent) error
}

// Background supplies the latest camera frame drawn under the canvas.
type Background interface {
	Background(dst *gocv.Mat) bool
}

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Controller Controller
	Canvas     *canvas.Canvas
	Overlay    *canvas.Overlay
	Background Background

	// Base holds the file, env and flag settings that stored overrides are
	// layered on. Nil means the defaults.
	Base *viper.Viper
}

// Server represents the HTTP server for the airpaint application.
type Server struct {
	config Config
	mux    *http.ServeMux
	hub    *Hub
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	if config.Controller != nil {
		s.hub = NewHub(config.Controller)
	}
	s.setupRoutes()
	return s
}

// Hub returns the websocket hub, or nil when no controller is configured.
func (s *Server) Hub() *Hub {
	return s.hub
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if ctrl := s.config.Controller; ctrl != nil {
		actions := api.NewActionHandler(ctrl)
		s.mux.HandleFunc("/api/state", actions.State)
		s.mux.HandleFunc("/api/actions", actions.Actions)
		s.mux.HandleFunc("/api/canvas", actions.Canvas)
		s.mux.Handle("/api/input", s.hub)
	}

	if s.config.Canvas != nil {
		s.mux.HandleFunc("/api/canvas.png", s.handleCanvasPNG)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Canvas, s.config.Overlay, s.config.Background))
	}

	if st := s.config.Store; st != nil {
		if s.config.Canvas != nil {
			snapshots := api.NewSnapshotHandler(st, s.config.Canvas)
			s.mux.Handle("/api/snapshots", snapshots)
			s.mux.Handle("/api/snapshots/", snapshots)
		}

		settings := api.NewSettingsHandler(st, s.config.Base)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)
		s.mux.Handle("/api/history", api.NewHistoryHandler(st))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleCanvasPNG serves the composite image. ?strokes=1 returns only the
// persistent strokes.
func (s *Server) handleCanvasPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		data []byte
		err  error
	)
	if r.URL.Query().Get("strokes") == "1" {
		data, err = s.config.Canvas.EncodePNG()
	} else {
		bg := gocv.NewMat()
		defer bg.Close()
		var background *gocv.Mat
		if s.config.Background != nil && s.config.Background.Background(&bg) {
			background = &bg
		}
		data, err = canvas.EncodeComposedPNG(background, s.config.Canvas, s.config.Overlay)
	}
	if err != nil {
		log.Error("failed to encode canvas", "error", err)
		http.Error(w, "Failed to encode canvas", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
