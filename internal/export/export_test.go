package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/canvas"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	opts := DefaultOptions()
	opts.PixelScale = 1
	r, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func testState() canvas.State {
	return canvas.State{
		Title:    "Acme Plan",
		FontSize: canvas.DefaultFontSize,
		Boxes: []canvas.Box{
			{ID: "shown", Kind: canvas.KindText, Visible: true, X: 50, Y: 50, Width: 40, Height: 40, Theme: canvas.ThemeGrey},
			{ID: "hidden", Kind: canvas.KindText, Visible: false, X: 0, Y: 0, Width: 40, Height: 40, Theme: canvas.ThemeNavy},
		},
	}
}

func rgbaAt(img image.Image, x, y float64) color.RGBA {
	return color.RGBAModel.Convert(img.At(int(x), int(y))).(color.RGBA)
}

func TestFormatFor(t *testing.T) {
	o := DefaultOptions()
	cases := []struct {
		viewport int
		want     Format
	}{
		{0, FormatPDF},
		{375, FormatJPEG},
		{1023, FormatJPEG},
		{1024, FormatPDF},
		{1920, FormatPDF},
	}
	for _, tc := range cases {
		if got := o.FormatFor(tc.viewport); got != tc.want {
			t.Errorf("FormatFor(%d) = %s, want %s", tc.viewport, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("jpeg"); err != nil || f != FormatJPEG {
		t.Fatalf("ParseFormat(jpeg) = %q, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != "" {
		t.Fatalf("ParseFormat(\"\") = %q, %v", f, err)
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		title  string
		format Format
		want   string
	}{
		{"Acme Plan", FormatPDF, "acme-plan-strategy.pdf"},
		{"Acme   Café  2025", FormatJPEG, "acme-cafe-2025-strategy.jpg"},
		{"  Q3: growth/plan ", FormatPDF, "q3-growthplan-strategy.pdf"},
		{"", FormatPNG, "canvas-strategy.png"},
		{"///", FormatPDF, "canvas-strategy.pdf"},
	}
	for _, tc := range cases {
		if got := Filename(tc.title, tc.format); got != tc.want {
			t.Errorf("Filename(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestRaster_SizeAndBoxes(t *testing.T) {
	r := testRenderer(t)
	s := testState()
	img := r.Raster(s)

	f := r.Options().frame()
	if img.Bounds().Dx() != 900 || img.Bounds().Dy() != f.height {
		t.Fatalf("raster size = %v, want 900x%d", img.Bounds().Size(), f.height)
	}

	white := canvas.CanvasBackground(false)
	if got := rgbaAt(img, 2, 2); got != white {
		t.Errorf("page background = %v, want %v", got, white)
	}

	x, y, w, h := f.boxRect(s.Boxes[0])
	if got, want := rgbaAt(img, x+w/2, y+h/2), canvas.ThemeGrey.Palette().Background; got != want {
		t.Errorf("visible box fill = %v, want %v", got, want)
	}

	x, y, w, h = f.boxRect(s.Boxes[1])
	if got := rgbaAt(img, x+w/2, y+h/2); got != white {
		t.Errorf("hidden box was drawn: %v", got)
	}
}

func TestRaster_DarkBackground(t *testing.T) {
	r := testRenderer(t)
	s := testState()
	s.DarkMode = true
	img := r.Raster(s)
	if got, want := rgbaAt(img, 2, 2), canvas.CanvasBackground(true); got != want {
		t.Errorf("dark background = %v, want %v", got, want)
	}
}

func TestExport_MobileJPEG(t *testing.T) {
	r := testRenderer(t)
	art, err := r.Export(context.Background(), testState(), Request{Viewport: 390})
	if err != nil {
		t.Fatal(err)
	}
	if art.Format != FormatJPEG || art.ContentType != "image/jpeg" {
		t.Fatalf("artifact = %s %s", art.Format, art.ContentType)
	}
	if art.Filename != "acme-plan-strategy.jpg" {
		t.Errorf("filename = %q", art.Filename)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 900 {
		t.Errorf("jpeg width = %d, want 900", cfg.Width)
	}
}

func TestExport_DesktopPDF(t *testing.T) {
	r := testRenderer(t)
	art, err := r.Export(context.Background(), testState(), Request{Viewport: 1440})
	if err != nil {
		t.Fatal(err)
	}
	if art.Format != FormatPDF || art.Filename != "acme-plan-strategy.pdf" {
		t.Fatalf("artifact = %s %q", art.Format, art.Filename)
	}
	if !bytes.HasPrefix(art.Data, []byte("%PDF-")) {
		t.Errorf("output is not a pdf: %q", art.Data[:min(8, len(art.Data))])
	}
}

func TestExport_FormatOverride(t *testing.T) {
	r := testRenderer(t)
	art, err := r.Export(context.Background(), testState(), Request{Viewport: 1440, Format: FormatPNG})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(art.Data)); err != nil {
		t.Fatalf("png decode: %v", err)
	}
}

func TestExport_Cancelled(t *testing.T) {
	r := testRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Export(ctx, testState(), Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFitInto(t *testing.T) {
	// A3 landscape is 420x297 mm.
	w, h := fitInto(2700, 2118, 420, 297)
	if math.Abs(h-297) > 1e-9 || w > 420 {
		t.Errorf("fitInto = %.2f x %.2f", w, h)
	}
	w, h = fitInto(3000, 1000, 420, 297)
	if math.Abs(w-420) > 1e-9 || h > 297 {
		t.Errorf("fitInto wide = %.2f x %.2f", w, h)
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for zero options")
	}
}
