// Package export renders a canvas to a shareable artifact: a raster image for
// narrow viewports and an A3 landscape PDF for everything else.
package export

import (
	"fmt"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/canvas"
)

// Format is the artifact encoding.
type Format string

// Supported formats.
const (
	FormatJPEG Format = "jpg"
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
)

// ParseFormat accepts "", "jpg", "jpeg", "pdf" and "png". The empty string
// means "choose from the viewport".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "":
		return "", nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("export: unknown format %q: %w", s, apperr.ErrInvalid)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "application/pdf"
	}
}

// Subtitle is printed under the page title in every export.
const Subtitle = "Strategy on a page"

// Options tune the renderer.
type Options struct {
	// ReferenceWidth is the logical page width the raster is laid out at.
	ReferenceWidth float64
	// PixelScale multiplies every logical pixel in the raster.
	PixelScale float64
	// MobileBreakpoint is the viewport width from which PDF is produced.
	MobileBreakpoint int
	JPEGQuality      int
	// PageSize is the fpdf page size name used for PDF output.
	PageSize string
}

// DefaultOptions returns the stock export settings.
func DefaultOptions() Options {
	return Options{
		ReferenceWidth:   canvas.ReferenceWidth,
		PixelScale:       3,
		MobileBreakpoint: 1024,
		JPEGQuality:      95,
		PageSize:         "A3",
	}
}

// FormatFor picks the artifact format for a client viewport width.
func (o Options) FormatFor(viewport int) Format {
	if viewport > 0 && viewport < o.MobileBreakpoint {
		return FormatJPEG
	}
	return FormatPDF
}

// Request describes one export.
type Request struct {
	// Viewport is the client viewport width in CSS pixels. Zero means desktop.
	Viewport int
	// Format overrides the viewport choice when set.
	Format Format
}

// Artifact is a rendered export ready to be downloaded or written to disk.
type Artifact struct {
	Filename    string
	ContentType string
	Format      Format
	Data        []byte
}
