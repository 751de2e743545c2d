package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"

	"github.com/starford/onepage/internal/canvas"
)

// Export renders s and encodes it in the requested or viewport-derived
// format. A panic inside the drawing libraries is reported as an error so the
// caller's session stays usable.
func (r *Renderer) Export(ctx context.Context, s canvas.State, req Request) (art *Artifact, err error) {
	defer func() {
		if p := recover(); p != nil {
			art, err = nil, fmt.Errorf("export: render failed: %v", p)
		}
	}()

	format := req.Format
	if format == "" {
		format = r.opts.FormatFor(req.Viewport)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := r.Raster(s)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case FormatJPEG:
		data, err = r.encodeJPEG(img)
	case FormatPNG:
		data, err = encodePNG(img)
	case FormatPDF:
		data, err = r.encodePDF(img, s.Title)
	default:
		return nil, fmt.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Filename:    Filename(s.Title, format),
		ContentType: format.ContentType(),
		Format:      format,
		Data:        data,
	}, nil
}

func (r *Renderer) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("export: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := gg.NewContextForImage(img).EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("export: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// encodePDF places the raster on a single landscape page, scaled to fit and
// centred on both axes.
func (r *Renderer) encodePDF(img image.Image, title string) ([]byte, error) {
	jpg, err := r.encodeJPEG(img)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", r.opts.PageSize, "")
	pdf.SetTitle(title, true)
	pdf.SetSubject(Subtitle, true)
	pdf.SetCreator("onepage", true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("canvas", opts, bytes.NewReader(jpg))

	pageW, pageH := pdf.GetPageSize()
	bounds := img.Bounds()
	w, h := fitInto(float64(bounds.Dx()), float64(bounds.Dy()), pageW, pageH)
	pdf.ImageOptions("canvas", (pageW-w)/2, (pageH-h)/2, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fitInto scales (w, h) to the largest size inside (maxW, maxH) that keeps
// the aspect ratio.
func fitInto(w, h, maxW, maxH float64) (float64, float64) {
	ratio := min(maxW/w, maxH/h)
	return w * ratio, h * ratio
}
