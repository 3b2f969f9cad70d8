package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/config"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/discovery"
	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/palette"
	"github.com/ayusman/airpaint/internal/server"
	"github.com/ayusman/airpaint/internal/speech"
	"github.com/ayusman/airpaint/internal/store"
	"github.com/ayusman/airpaint/internal/stroke"
	"github.com/ayusman/airpaint/internal/tray"
	"github.com/ayusman/airpaint/internal/voice"
)

func runServe(cmd *cobra.Command, args []string) error {
	st, err := openStore(viper.GetString("store.path"))
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()
	log.Info("store opened", "path", st.Path())

	// Settings changed while running are checked against the values from
	// before the stored overrides were applied.
	base := config.Snapshot(viper.GetViper())
	cfg, err := loadConfig(st)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Tray.Enabled {
		return serve(ctx, cfg, base, st, nil)
	}

	// The tray owns the main goroutine; the service runs beside it.
	t := tray.New()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, cfg, base, st, t)
		t.Quit()
	}()
	t.Run()
	cancel()
	return <-errCh
}

// serve builds the drawing pipeline and runs it until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, base *viper.Viper, st *store.Store, t *tray.Tray) error {
	pal, err := palette.New(cfg.Palette.Colors)
	if err != nil {
		return err
	}

	width, height := cfg.Camera.Width, cfg.Camera.Height
	surface, err := canvas.New(width, height)
	if err != nil {
		return err
	}
	defer surface.Close()

	overlay, err := canvas.NewOverlay(width, height)
	if err != nil {
		return err
	}
	defer overlay.Close()

	brush := stroke.Style{Width: cfg.Brush.Width, Glow: cfg.Brush.Glow}
	if cfg.Brush.GlowColor != "" {
		glow, err := palette.ParseColor(cfg.Brush.GlowColor)
		if err != nil {
			return err
		}
		brush.GlowColor = glow.RGBA
	}

	// The hub is created after the controller, so its speaker is reached
	// through this variable. It is set before the controller runs.
	var hub *server.Hub
	speakers := speech.Multi{speech.Func(func(text string) {
		if hub != nil {
			hub.Speaker().Speak(text)
		}
	})}
	if cfg.Speech.Command != "" {
		cmdSpeaker, err := speech.NewCommandSpeaker(cfg.Speech.Command, cfg.Speech.Timeout)
		if err != nil {
			return err
		}
		defer cmdSpeaker.Close()
		speakers = append(speakers, cmdSpeaker)
	}

	ctrl := app.NewController(surface, app.Options{
		Width:  width,
		Height: height,
		Mirror: cfg.Camera.Mirror,
		Classifier: gesture.ClassifierConfig{
			PinchThreshold: cfg.Gesture.PinchThreshold,
			MinDrawY:       cfg.Gesture.MinDrawY,
			ZoomThreshold:  cfg.Gesture.ZoomThreshold,
			ZoomScale:      cfg.Gesture.ZoomScale,
		},
		Smoothing:       cfg.Cursor.Smoothing,
		ResetOnHandLoss: cfg.Cursor.OnHandLoss == config.HandLossReset,
		Brush:           brush,
		Palette:         pal,
		Wheel:           cfg.Palette.Wheel,
		DrawMode:        true,
		Overlay:         overlay,
		Speaker:         speakers,
		History:         st.Utterances(),
	})

	var capturer *app.App
	if cfg.Camera.Enabled {
		capturer = startCapture(cfg, ctrl)
	}
	if capturer != nil {
		defer capturer.Close()
		defer capturer.Stop()
	}

	srvCfg := server.Config{
		StaticDir:  cfg.Server.StaticDir,
		Store:      st,
		Controller: ctrl,
		Canvas:     surface,
		Overlay:    overlay,
		Base:       base,
	}
	if srvCfg.StaticDir == "" {
		srvCfg.StaticDir = findWebDir()
	}
	if capturer != nil {
		srvCfg.Background = capturer
	}
	srv := server.New(srvCfg)
	hub = srv.Hub()

	if t != nil {
		ctrl.OnChange(t.SetState)
		t.SetState(ctrl.Snapshot())
		t.OnAction(func(a voice.Action) {
			if err := ctrl.SubmitAction(ctx, a); err != nil {
				log.Warn("tray action dropped", "action", a, "error", err)
			}
		})
		t.OnOpen(func() { openBrowser(localURL(cfg.Server.Addr)) })
	}

	if cfg.Server.Advertise {
		if port, err := listenPort(cfg.Server.Addr); err != nil {
			log.Warn("not advertising", "error", err)
		} else if adv, err := discovery.Advertise(port, "path=/", "version=1"); err != nil {
			log.Warn("mDNS advertise failed", "error", err)
		} else {
			defer adv.Shutdown()
		}
	}

	ctrlDone := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(ctrlDone)
	}()
	defer func() { <-ctrlDone }()

	if srvCfg.StaticDir != "" {
		log.Info("serving static files", "dir", srvCfg.StaticDir)
	}
	err = srv.Run(ctx, cfg.Server.Addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info("shutting down")
	return nil
}

// startCapture opens the camera and detector. On failure it logs and
// returns nil, leaving websocket input as the only source.
func startCapture(cfg config.Config, ctrl *app.Controller) *app.App {
	det, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConfidence,
	})
	if err != nil {
		log.Error("hand detector unavailable, continuing without camera", "error", err)
		return nil
	}

	appCfg := app.Config{
		Camera: capture.NewCamera(capture.Options{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			FPS:    cfg.Camera.FPS,
			Mirror: cfg.Camera.Mirror,
		}),
		Detector:   det,
		Controller: ctrl,
	}
	if cfg.Camera.MotionThreshold > 0 {
		appCfg.Throttle = capture.NewThrottle(
			capture.NewMotionDetector(cfg.Camera.MotionThreshold),
			cfg.Camera.IdleFPS, cfg.Camera.FPS, capture.DefaultIdleAfter,
		)
	}

	a := app.New(appCfg)
	if err := a.Start(); err != nil {
		log.Error("camera unavailable, continuing without camera", "device", cfg.Camera.Device, "error", err)
		det.Close()
		if appCfg.Throttle != nil {
			appCfg.Throttle.Close()
		}
		a.Close()
		return nil
	}
	return a
}

func listenPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return 0, fmt.Errorf("invalid port in %q", addr)
	}
	return port, nil
}

func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}
