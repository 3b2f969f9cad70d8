package app

import (
	"time"

	"github.com/ayusman/airpaint/internal/gesture"
)

// Status text shown on the overlay.
const (
	StatusDrawing = "DRAWING"
	StatusIdle    = "IDLE"
	StatusNoHand  = "NO HAND DETECTED"
)

// State is the published view of the controller. Readers get copies.
type State struct {
	Status       string         `json:"status"`
	DrawMode     bool           `json:"draw_mode"`
	Pen          string         `json:"pen"`
	Color        string         `json:"color"`
	ColorHex     string         `json:"color_hex"`
	PaletteIndex int            `json:"palette_index"`
	Cursor       *gesture.Point `json:"cursor,omitempty"`
	HandVisible  bool           `json:"hand_visible"`
	Pinching     bool           `json:"pinching"`
	Zoom         float64        `json:"zoom"`
	Frames       uint64         `json:"frames"`
	Dropped      uint64         `json:"dropped_frames"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// sameView reports whether two states look the same to a listener. Cursor
// motion and counters are ignored.
func sameView(a, b State) bool {
	return a.Status == b.Status &&
		a.DrawMode == b.DrawMode &&
		a.Pen == b.Pen &&
		a.Color == b.Color &&
		a.PaletteIndex == b.PaletteIndex &&
		a.HandVisible == b.HandVisible &&
		a.Pinching == b.Pinching &&
		a.Zoom == b.Zoom
}
