// Package canvas provides the gocv-backed drawing surfaces: a persistent
// canvas that accumulates strokes and an overlay that is redrawn each
// frame.
package canvas

import (
	"errors"
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/stroke"
)

// ErrInvalidSize is returned for non-positive canvas dimensions.
var ErrInvalidSize = errors.New("canvas size must be positive")

// Canvas is a persistent BGR surface. It implements stroke.Surface and is
// safe for concurrent readers while a single writer paints.
type Canvas struct {
	mu     sync.RWMutex
	mat    gocv.Mat
	width  int
	height int
}

// New allocates a blank canvas.
func New(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}

	return &Canvas{
		mat:    gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		width:  width,
		height: height,
	}, nil
}

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.width, c.height)
}

// Line paints a round-capped segment, preceded by its glow halo.
func (c *Canvas) Line(from, to gesture.Point, style stroke.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p1, p2 := pixel(from), pixel(to)
	thickness := int(math.Max(1, math.Round(style.Width)))

	if style.Glow > 0 {
		c.halo(p1, p2, thickness, style)
	}
	gocv.Line(&c.mat, p1, p2, style.Color, thickness)
}

// halo blurs a wider copy of the segment into the canvas. It only touches
// the segment's bounding box, and uses a per-channel max so the halo never
// darkens existing strokes.
func (c *Canvas) halo(p1, p2 image.Point, thickness int, style stroke.Style) {
	radius := int(math.Ceil(style.Glow))
	pad := thickness/2 + 2*radius + 1

	rect := image.Rect(
		min(p1.X, p2.X)-pad, min(p1.Y, p2.Y)-pad,
		max(p1.X, p2.X)+pad+1, max(p1.Y, p2.Y)+pad+1,
	).Intersect(c.Bounds())
	if rect.Empty() {
		return
	}

	layer := gocv.NewMatWithSize(rect.Dy(), rect.Dx(), gocv.MatTypeCV8UC3)
	defer layer.Close()

	gocv.Line(&layer, p1.Sub(rect.Min), p2.Sub(rect.Min), style.HaloColor(), thickness+radius)

	kernel := 2*radius + 1
	gocv.GaussianBlur(layer, &layer, image.Point{X: kernel, Y: kernel}, 0, 0, gocv.BorderDefault)

	roi := c.mat.Region(rect)
	defer roi.Close()
	gocv.Max(roi, layer, &roi)
}

// Clear wipes every pixel.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// PaintedPixels counts pixels that are not black.
func (c *Canvas) PaintedPixels() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return countNonBlack(c.mat)
}

// IsBlank reports whether nothing is painted.
func (c *Canvas) IsBlank() bool {
	return c.PaintedPixels() == 0
}

// At returns the BGR value of a pixel.
func (c *Canvas) At(x, y int) (b, g, r uint8) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.mat.GetVecbAt(y, x)
	return v[0], v[1], v[2]
}

// CopyTo copies the canvas into dst.
func (c *Canvas) CopyTo(dst *gocv.Mat) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.mat.CopyTo(dst)
}

// EncodePNG returns the canvas as a PNG image.
func (c *Canvas) EncodePNG() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return encode(gocv.PNGFileExt, c.mat)
}

// Close releases the pixel buffer.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mat.Close()
}

// pixel rounds a point to the nearest pixel.
func pixel(p gesture.Point) image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// countNonBlack counts pixels with any non-zero channel.
func countNonBlack(m gocv.Mat) int {
	gray := gocv.NewMat()
	defer gray.Close()
	nonBlackMask(m, &gray)
	return gocv.CountNonZero(gray)
}

// nonBlackMask writes a single-channel mask that is 255 wherever m has any
// non-zero channel.
func nonBlackMask(m gocv.Mat, mask *gocv.Mat) {
	channels := gocv.Split(m)
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()

	channels[0].CopyTo(mask)
	for _, ch := range channels[1:] {
		gocv.BitwiseOr(*mask, ch, mask)
	}
	gocv.Threshold(*mask, mask, 0, 255, gocv.ThresholdBinary)
}

func encode(ext gocv.FileExt, m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(ext, m)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	// The buffer's bytes live in C memory and are freed by Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}
