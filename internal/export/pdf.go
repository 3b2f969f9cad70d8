// Package export renders canvas snapshots into documents.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ErrEmptyImage is returned when there is no image data to place.
var ErrEmptyImage = errors.New("image is empty")

const (
	pageMargin   = 10.0 // mm
	headerHeight = 8.0  // mm
)

// Page describes one exported canvas image.
type Page struct {
	Title     string
	PNG       []byte
	Width     int // pixels
	Height    int // pixels
	CreatedAt time.Time
}

// WritePDF writes a single A4 page holding the image, scaled to fit inside
// the margins with its aspect ratio kept. Wide images get a landscape page.
func WritePDF(w io.Writer, page Page) error {
	if len(page.PNG) == 0 {
		return ErrEmptyImage
	}
	if page.Width <= 0 || page.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", page.Width, page.Height)
	}

	orientation := "P"
	if page.Width > page.Height {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(page.Title, true)
	pdf.SetCreator("airpaint", true)
	if !page.CreatedAt.IsZero() {
		pdf.SetCreationDate(page.CreatedAt)
	}
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	top := pageMargin
	if page.Title != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.Text(pageMargin, pageMargin+4, page.Title)
		top += headerHeight
	}

	boxW := pageW - 2*pageMargin
	boxH := pageH - top - pageMargin
	scale := boxW / float64(page.Width)
	if s := boxH / float64(page.Height); s < scale {
		scale = s
	}
	imgW := float64(page.Width) * scale
	imgH := float64(page.Height) * scale
	x := (pageW - imgW) / 2
	y := top + (boxH-imgH)/2

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("canvas", opts, bytes.NewReader(page.PNG))
	pdf.ImageOptions("canvas", x, y, imgW, imgH, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	return pdf.Output(w)
}
