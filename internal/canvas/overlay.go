package canvas

import (
	"image"
	"image/color"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/palette"
)

// HUD is everything the overlay shows for one frame.
type HUD struct {
	Cursor       gesture.Point
	ShowCursor   bool
	CursorRadius float64
	CursorColor  color.RGBA

	Status string
	Swatch color.RGBA

	// Wheel is drawn when WheelColors is non-empty.
	Wheel       palette.Wheel
	WheelColors []color.RGBA
	Selected    int
}

var (
	hudText     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hudOutline  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hudTextRoot = image.Point{X: 20, Y: 40}
)

// Overlay is a per-frame surface drawn above the canvas. Render clears it
// before drawing, so nothing persists between frames.
type Overlay struct {
	mu     sync.RWMutex
	mat    gocv.Mat
	mask   gocv.Mat
	width  int
	height int
}

// NewOverlay allocates an overlay matching a canvas size.
func NewOverlay(width, height int) (*Overlay, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	return &Overlay{
		mat:    gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		mask:   gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U),
		width:  width,
		height: height,
	}, nil
}

// Render replaces the overlay contents with h.
func (o *Overlay) Render(h HUD) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))

	if len(h.WheelColors) > 0 {
		o.drawWheel(h)
	}

	if h.ShowCursor {
		r := int(math.Max(1, math.Round(h.CursorRadius)))
		gocv.Circle(&o.mat, pixel(h.Cursor), r, h.CursorColor, 2)
	}

	if h.Status != "" {
		gocv.PutText(&o.mat, h.Status, hudTextRoot, gocv.FontHersheySimplex, 1, hudText, 2)
	}

	swatch := image.Rect(o.width-70, 20, o.width-20, 70)
	gocv.Rectangle(&o.mat, swatch, h.Swatch, -1)
	gocv.Rectangle(&o.mat, swatch, hudOutline, 1)

	nonBlackMask(o.mat, &o.mask)
}

// drawWheel fills one wedge per color and outlines the selected one.
func (o *Overlay) drawWheel(h HUD) {
	w := h.Wheel
	w.Count = len(h.WheelColors)
	center := pixel(w.Center)
	r := int(math.Round(w.Radius))
	axes := image.Point{X: r, Y: r}

	for i, c := range h.WheelColors {
		start, end := w.Wedge(i)
		gocv.Ellipse(&o.mat, center, axes, 0, start, end, c, -1)
	}

	if h.Selected >= 0 && h.Selected < w.Count {
		start, end := w.Wedge(h.Selected)
		gocv.Ellipse(&o.mat, center, axes, 0, start, end, hudOutline, 3)
		for _, a := range []float64{start, end} {
			rad := a * math.Pi / 180
			edge := image.Point{
				X: center.X + int(math.Round(float64(r)*math.Cos(rad))),
				Y: center.Y + int(math.Round(float64(r)*math.Sin(rad))),
			}
			gocv.Line(&o.mat, center, edge, hudOutline, 3)
		}
	}
}

// PaintedPixels counts non-black overlay pixels.
func (o *Overlay) PaintedPixels() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return gocv.CountNonZero(o.mask)
}

// At returns the BGR value of an overlay pixel.
func (o *Overlay) At(x, y int) (b, g, r uint8) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v := o.mat.GetVecbAt(y, x)
	return v[0], v[1], v[2]
}

// Close releases the overlay buffers.
func (o *Overlay) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mask.Close()
	return o.mat.Close()
}

// Compose writes background (optional), canvas and overlay into dst, in
// that order. Each layer replaces the one below wherever it has painted
// pixels. A background of a different size is scaled to the canvas.
func Compose(dst *gocv.Mat, background *gocv.Mat, c *Canvas, o *Overlay) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if background == nil || background.Empty() {
		c.mat.CopyTo(dst)
	} else {
		size := image.Point{X: c.width, Y: c.height}
		if background.Cols() != c.width || background.Rows() != c.height {
			gocv.Resize(*background, dst, size, 0, 0, gocv.InterpolationLinear)
		} else {
			background.CopyTo(dst)
		}

		mask := gocv.NewMat()
		defer mask.Close()
		nonBlackMask(c.mat, &mask)
		c.mat.CopyToWithMask(dst, mask)
	}

	if o != nil {
		o.mu.RLock()
		defer o.mu.RUnlock()
		o.mat.CopyToWithMask(dst, o.mask)
	}
}

// EncodeJPEG composes the layers and returns them as one JPEG image.
func EncodeJPEG(background *gocv.Mat, c *Canvas, o *Overlay) ([]byte, error) {
	out := gocv.NewMat()
	defer out.Close()
	Compose(&out, background, c, o)
	return encode(gocv.JPEGFileExt, out)
}

// EncodeComposedPNG composes the layers and returns them as one PNG image.
func EncodeComposedPNG(background *gocv.Mat, c *Canvas, o *Overlay) ([]byte, error) {
	out := gocv.NewMat()
	defer out.Close()
	Compose(&out, background, c, o)
	return encode(gocv.PNGFileExt, out)
}
