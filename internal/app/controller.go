// Package app owns the air drawing state and the capture loop that feeds
// it.
package app

import (
	"context"
	"image/color"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/palette"
	"github.com/ayusman/airpaint/internal/speech"
	"github.com/ayusman/airpaint/internal/store"
	"github.com/ayusman/airpaint/internal/stroke"
	"github.com/ayusman/airpaint/internal/voice"
)

// Queue sizes for controller inputs.
const (
	FrameBuffer = 2
	inputBuffer = 16
)

// DefaultCursorRadius is the radius of the overlay cursor ring.
const DefaultCursorRadius = 15

var defaultCursorColor = color.RGBA{R: 255, A: 255}

// HUDRenderer draws the per-frame overlay.
type HUDRenderer interface {
	Render(h canvas.HUD)
}

// History records final transcripts.
type History interface {
	Create(u *store.Utterance) error
}

// Options configures a Controller.
type Options struct {
	Width  int
	Height int
	Mirror bool

	Classifier      gesture.ClassifierConfig
	Smoothing       float64
	ResetOnHandLoss bool

	// Brush is the stroke style. Its Color is replaced by the palette's
	// current color.
	Brush   stroke.Style
	Palette *palette.Palette
	Wheel   bool

	// DrawMode is the initial draw-mode flag.
	DrawMode bool

	Commands    []voice.Command
	Overlay     HUDRenderer
	Speaker     speech.Speaker
	History     History
	CursorColor color.RGBA
}

// Controller is the single writer of pen, cursor, palette and canvas state.
// Inputs are queued on channels and applied in Run.
type Controller struct {
	opts       Options
	projection detector.Projection
	renderer   *stroke.Renderer
	smoother   *gesture.Smoother
	classifier gesture.Classifier
	palette    *palette.Palette
	wheel      palette.Wheel
	dispatcher *voice.Dispatcher
	speaker    speech.Speaker

	frames      chan FrameEvent
	transcripts chan TranscriptEvent
	pointer     chan PointerEvent
	actions     chan voice.Action

	// loop-owned
	drawMode      bool
	status        string
	cursor        *gesture.Point
	hand          bool
	pinching      bool
	zoom          float64
	wheelHeld     bool
	pointerActive bool
	frameCount    uint64

	mu        sync.RWMutex
	state     State
	dropped   uint64
	listeners []func(State)
	notified  State
}

// NewController creates a Controller painting onto surface.
func NewController(surface stroke.Surface, opts Options) *Controller {
	if opts.Palette == nil {
		opts.Palette = palette.Default()
	}
	if opts.Speaker == nil {
		opts.Speaker = speech.Nop{}
	}
	if opts.CursorColor == (color.RGBA{}) {
		opts.CursorColor = defaultCursorColor
	}
	if opts.Brush.Width <= 0 {
		opts.Brush.Width = stroke.DefaultWidth
	}

	brush := opts.Brush
	brush.Color = opts.Palette.Current().RGBA

	c := &Controller{
		opts: opts,
		projection: detector.Projection{
			Width:  float64(opts.Width),
			Height: float64(opts.Height),
			Mirror: opts.Mirror,
		},
		renderer:    stroke.NewRenderer(surface, brush),
		smoother:    gesture.NewSmoother(opts.Smoothing),
		classifier:  gesture.NewClassifier(opts.Classifier),
		palette:     opts.Palette,
		dispatcher:  voice.NewDispatcher(opts.Commands),
		speaker:     opts.Speaker,
		frames:      make(chan FrameEvent, FrameBuffer),
		transcripts: make(chan TranscriptEvent, inputBuffer),
		pointer:     make(chan PointerEvent, inputBuffer),
		actions:     make(chan voice.Action, inputBuffer),
		drawMode:    opts.DrawMode,
		status:      StatusNoHand,
		zoom:        1,
	}

	if opts.Wheel {
		radius := opts.Classifier.MinDrawY
		if radius <= 0 {
			radius = gesture.DefaultMinDrawY
		}
		c.wheel = palette.NewWheel(float64(opts.Width), radius, c.palette.Len())
	}

	c.publish()
	return c
}

// OnChange registers fn to be called from the controller goroutine whenever
// the visible state changes. fn must not block. Register before Run.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns a copy of the latest published state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	if s.Cursor != nil {
		p := *s.Cursor
		s.Cursor = &p
	}
	return s
}

// Projection returns the mapping from normalized landmarks to canvas
// pixels used for frames without their own projection.
func (c *Controller) Projection() detector.Projection {
	return c.projection
}

// Run applies queued inputs until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.frames:
			c.handleFrame(ev)
		case ev := <-c.transcripts:
			c.handleTranscript(ev)
		case ev := <-c.pointer:
			c.handlePointer(ev)
		case a := <-c.actions:
			c.applyAction(a)
		}
	}
}

// SubmitFrame queues a frame without blocking. When the queue is full the
// oldest frame is dropped.
func (c *Controller) SubmitFrame(ev FrameEvent) {
	for {
		select {
		case c.frames <- ev:
			return
		default:
		}

		select {
		case <-c.frames:
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
		default:
		}
	}
}

// SubmitTranscript queues a recognition result.
func (c *Controller) SubmitTranscript(ctx context.Context, ev TranscriptEvent) error {
	select {
	case c.transcripts <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitPointer queues a pointer event.
func (c *Controller) SubmitPointer(ctx context.Context, ev PointerEvent) error {
	select {
	case c.pointer <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAction queues an action from the tray or the HTTP API.
func (c *Controller) SubmitAction(ctx context.Context, a voice.Action) error {
	select {
	case c.actions <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) handleFrame(ev FrameEvent) {
	c.frameCount++

	if len(ev.Hands) == 0 {
		c.loseHand()
		c.publish()
		return
	}

	proj := ev.Projection
	if proj.Width <= 0 || proj.Height <= 0 {
		proj = c.projection
	}

	hand := &ev.Hands[0]
	tip := hand.Pixel(detector.IndexTip, proj)
	thumb := hand.Pixel(detector.ThumbTip, proj)
	cursor := c.smoother.Update(tip)
	cls := c.classifier.Classify(tip, thumb, cursor)

	c.hand = true
	c.cursor = &cursor
	c.zoom = cls.Zoom

	if c.opts.Wheel {
		c.pickFromWheel(cls.Pinching, cursor)
	}
	c.pinching = cls.Pinching

	if c.pointerActive {
		c.publish()
		return
	}

	down := cls.PenDown() && c.drawMode && !c.wheelHeld
	if down {
		c.renderer.SetWidthScale(cls.Zoom)
	}
	switch c.renderer.Update(down, cursor) {
	case stroke.Began:
		log.Debug("pen down", "x", cursor.X, "y", cursor.Y)
	case stroke.Ended:
		log.Debug("pen up", "x", cursor.X, "y", cursor.Y)
	}

	c.status = StatusIdle
	if c.renderer.State() == stroke.Drawing {
		c.status = StatusDrawing
	}
	c.publish()
}

// loseHand ends the open path and applies the hand-loss policy.
func (c *Controller) loseHand() {
	if !c.pointerActive {
		c.renderer.Lift()
	}
	if c.opts.ResetOnHandLoss {
		c.smoother.Reset()
		c.cursor = nil
	}
	c.hand = false
	c.pinching = false
	c.wheelHeld = false
	c.zoom = 1
	c.status = StatusNoHand
}

// pickFromWheel selects a color when a pinch starts over a wedge. The pen
// stays up until that pinch is released.
func (c *Controller) pickFromWheel(pinching bool, cursor gesture.Point) {
	if c.wheelHeld {
		if !pinching {
			c.wheelHeld = false
		}
		return
	}
	if !pinching || c.pinching {
		return
	}
	i, ok := c.wheel.WedgeAt(cursor)
	if !ok {
		return
	}

	c.wheelHeld = true
	c.renderer.Lift()
	if c.palette.Select(i) {
		col := c.palette.Current()
		c.renderer.SetColor(col.RGBA)
		log.Info("color picked from wheel", "color", col.Name)
		c.speaker.Speak("color " + col.Name)
	}
}

func (c *Controller) handlePointer(ev PointerEvent) {
	p := ev.Point
	c.cursor = &p

	switch ev.Phase {
	case PointerDown:
		c.pointerActive = true
		c.renderer.Lift()
		c.renderer.SetWidthScale(1)
		if c.drawMode {
			c.renderer.Update(true, p)
		}
	case PointerMove:
		if c.pointerActive && c.drawMode {
			c.renderer.Update(true, p)
		}
	case PointerUp:
		c.pointerActive = false
		c.renderer.Lift()
	default:
		log.Warn("unknown pointer phase", "phase", ev.Phase)
		return
	}

	c.status = StatusIdle
	if c.renderer.State() == stroke.Drawing {
		c.status = StatusDrawing
	}
	c.publish()
}

func (c *Controller) handleTranscript(ev TranscriptEvent) {
	if ev.Err != "" {
		log.Warn("speech recognition error", "error", ev.Err)
		return
	}
	if !ev.Final {
		log.Debug("ignoring interim transcript", "text", ev.Text)
		return
	}

	text := c.dispatcher.Normalize(ev.Text)
	if text == "" {
		return
	}

	actions := c.dispatcher.Dispatch(text)
	log.Info("heard", "transcript", text, "actions", len(actions))
	for _, a := range actions {
		c.applyAction(a)
	}

	if c.opts.History != nil {
		u := &store.Utterance{Transcript: text}
		for _, a := range actions {
			u.Actions = append(u.Actions, string(a))
		}
		if err := c.opts.History.Create(u); err != nil {
			log.Warn("failed to record transcript", "error", err)
		}
	}
}

func (c *Controller) applyAction(a voice.Action) {
	switch a {
	case voice.ActionStartDrawing:
		c.drawMode = true
		c.status = StatusDrawing
		c.speaker.Speak("drawing mode on")
	case voice.ActionStopDrawing:
		c.drawMode = false
		c.pointerActive = false
		c.renderer.Lift()
		c.status = StatusIdle
		c.speaker.Speak("drawing mode off")
	case voice.ActionClearCanvas:
		c.renderer.Clear()
		c.speaker.Speak("canvas cleared")
	case voice.ActionChangeColor:
		col := c.palette.Advance()
		c.renderer.SetColor(col.RGBA)
		c.speaker.Speak("color " + col.Name)
	default:
		log.Warn("unknown action", "action", a)
		return
	}
	log.Info("action applied", "action", a)
	c.publish()
}

// publish renders the overlay and replaces the shared state copy.
func (c *Controller) publish() {
	current := c.palette.Current()

	if c.opts.Overlay != nil {
		hud := canvas.HUD{
			ShowCursor:   c.cursor != nil,
			CursorRadius: DefaultCursorRadius,
			CursorColor:  c.opts.CursorColor,
			Status:       c.status,
			Swatch:       current.RGBA,
			Selected:     c.palette.Index(),
		}
		if c.cursor != nil {
			hud.Cursor = *c.cursor
		}
		if c.opts.Wheel {
			hud.Wheel = c.wheel
			for _, col := range c.palette.Colors() {
				hud.WheelColors = append(hud.WheelColors, col.RGBA)
			}
		}
		c.opts.Overlay.Render(hud)
	}

	s := State{
		Status:       c.status,
		DrawMode:     c.drawMode,
		Pen:          c.renderer.State().String(),
		Color:        current.Name,
		ColorHex:     current.Hex(),
		PaletteIndex: c.palette.Index(),
		HandVisible:  c.hand,
		Pinching:     c.pinching,
		Zoom:         c.zoom,
		Frames:       c.frameCount,
		UpdatedAt:    time.Now(),
	}
	if c.cursor != nil {
		p := *c.cursor
		s.Cursor = &p
	}

	c.mu.Lock()
	s.Dropped = c.dropped
	c.state = s
	changed := !sameView(s, c.notified)
	if changed {
		c.notified = s
	}
	listeners := c.listeners
	c.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(s)
		}
	}
}
