// Package tray provides a system tray menu for the airpaint drawing service.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/voice"
)

// Tray represents the system tray application.
type Tray struct {
	onAction func(a voice.Action)
	onOpen   func()
	onQuit   func()
	state    app.State
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuColor  *systray.MenuItem
	menuDraw   *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{state: app.State{Status: app.StatusNoHand}}
}

// OnAction sets the callback for menu items that map to controller actions.
func (t *Tray) OnAction(fn func(a voice.Action)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAction = fn
}

// OnOpen sets the callback for the Open Canvas item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("airpaint")
	systray.SetTooltip("airpaint air drawing")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("", "Tracking status")
	t.menuStatus.Disable()
	t.menuColor = systray.AddMenuItem("", "Current brush color")
	t.menuColor.Disable()
	systray.AddSeparator()
	t.menuDraw = systray.AddMenuItem("", "Toggle drawing mode")
	t.refresh()
	t.mu.Unlock()

	menuNext := systray.AddMenuItem("Next Color", "Advance the palette")
	menuClear := systray.AddMenuItem("Clear Canvas", "Erase all strokes")
	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open Canvas...", "Open the canvas in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit airpaint")

	go func() {
		for {
			select {
			case <-t.menuDraw.ClickedCh:
				t.handleToggleDraw()
			case <-menuNext.ClickedCh:
				t.handleAction(voice.ActionChangeColor)
			case <-menuClear.ClickedCh:
				t.handleAction(voice.ActionClearCanvas)
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// SetState updates the status and color items. It is safe to call before
// Run and from any goroutine.
func (t *Tray) SetState(s app.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	t.refresh()
}

// State returns the last state passed to SetState.
func (t *Tray) State() app.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// refresh requires t.mu.
func (t *Tray) refresh() {
	if t.menuStatus == nil {
		return
	}
	t.menuStatus.SetTitle(statusTitle(t.state))
	t.menuColor.SetTitle(colorTitle(t.state))
	t.menuDraw.SetTitle(drawTitle(t.state))
}

func statusTitle(s app.State) string {
	return "Status: " + s.Status
}

func colorTitle(s app.State) string {
	if s.Color == "" {
		return "Color: none"
	}
	return fmt.Sprintf("Color: %s (%s)", s.Color, s.ColorHex)
}

func drawTitle(s app.State) string {
	if s.DrawMode {
		return "● Drawing Mode"
	}
	return "○ Drawing Mode"
}

// handleToggleDraw maps the drawing mode item to start or stop.
func (t *Tray) handleToggleDraw() {
	if t.State().DrawMode {
		t.handleAction(voice.ActionStopDrawing)
	} else {
		t.handleAction(voice.ActionStartDrawing)
	}
}

func (t *Tray) handleAction(a voice.Action) {
	t.mu.RLock()
	callback := t.onAction
	t.mu.RUnlock()

	if callback != nil {
		callback(a)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}
