package export

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/samber/lo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/starford/onepage/internal/canvas"
)

// Logical page metrics, multiplied by Options.PixelScale when drawing.
const (
	pagePadding   = 24.0
	headerHeight  = 56.0
	pageTitlePx   = 22.0
	subtitlePx    = 12.0
	boxPadding    = 8.0
	boxRadius     = 6.0
	lineSpacing   = 1.3
	bulletIndent  = 12.0
	bulletRadius  = 1.6
	titleGap      = 4.0
	whiteBoxEdge  = 1.0
	subtitleShift = 20.0
)

var borderLight = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}

// frame is the page geometry in device pixels.
type frame struct {
	scale         float64
	width, height int
	areaX, areaY  float64
	areaW, areaH  float64
}

func (o Options) frame() frame {
	k := o.PixelScale
	areaW := o.ReferenceWidth - 2*pagePadding
	areaH := areaW / canvas.AspectRatio
	return frame{
		scale:  k,
		width:  int(o.ReferenceWidth * k),
		height: int((2*pagePadding + headerHeight + areaH) * k),
		areaX:  pagePadding * k,
		areaY:  (pagePadding + headerHeight) * k,
		areaW:  areaW * k,
		areaH:  areaH * k,
	}
}

// boxRect returns the device rectangle of b inside the canvas area.
func (f frame) boxRect(b canvas.Box) (x, y, w, h float64) {
	return f.areaX + b.X/100*f.areaW,
		f.areaY + b.Y/100*f.areaH,
		b.Width / 100 * f.areaW,
		b.Height / 100 * f.areaH
}

// Renderer draws canvas states. It is safe for concurrent use.
type Renderer struct {
	opts    Options
	regular *truetype.Font
	bold    *truetype.Font
}

// New parses the embedded Go fonts and returns a renderer.
func New(opts Options) (*Renderer, error) {
	if opts.ReferenceWidth <= 0 || opts.PixelScale <= 0 {
		return nil, fmt.Errorf("export: reference width and pixel scale must be positive")
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("export: parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("export: parse bold font: %w", err)
	}
	return &Renderer{opts: opts, regular: regular, bold: bold}, nil
}

// Options returns the renderer settings.
func (r *Renderer) Options() Options { return r.opts }

// faces hands out font faces for one render. truetype faces cache glyphs and
// must not be shared between goroutines.
type faces struct {
	r     *Renderer
	scale float64
	cache map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	px   float64
}

func (fs *faces) get(bold bool, px float64) font.Face {
	key := faceKey{bold: bold, px: px}
	if f, ok := fs.cache[key]; ok {
		return f
	}
	ttf := fs.r.regular
	if bold {
		ttf = fs.r.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    px * fs.scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	fs.cache[key] = f
	return f
}

func (fs *faces) close() {
	for _, f := range fs.cache {
		_ = f.Close()
	}
}

// Raster draws s at the configured reference width and pixel scale. Hidden
// boxes, the selection and any gesture are not drawn.
func (r *Renderer) Raster(s canvas.State) image.Image {
	f := r.opts.frame()
	fs := &faces{r: r, scale: f.scale, cache: map[faceKey]font.Face{}}
	defer fs.close()

	dc := gg.NewContext(f.width, f.height)
	dc.SetColor(canvas.CanvasBackground(s.DarkMode))
	dc.Clear()

	r.drawHeader(dc, f, fs, s)

	sizeIdx := lo.Clamp(s.FontSize, 0, len(canvas.FontSizes)-1)
	bodyPx := float64(canvas.FontSizes[sizeIdx])
	titlePx := float64(canvas.TitleFontSizes[sizeIdx])
	for _, b := range s.VisibleBoxes() {
		r.drawBox(dc, f, fs, b, s.DarkMode, titlePx, bodyPx)
	}
	return dc.Image()
}

func (r *Renderer) drawHeader(dc *gg.Context, f frame, fs *faces, s canvas.State) {
	k := f.scale
	titleColor := canvas.ThemeWhite.Palette().Title
	if s.DarkMode {
		titleColor = canvas.ThemeNavy.Palette().Title
	}
	x := pagePadding * k
	baseline := (pagePadding + pageTitlePx) * k

	dc.SetFontFace(fs.get(true, pageTitlePx))
	dc.SetColor(titleColor)
	dc.DrawString(fitLine(dc, s.Title, f.areaW), x, baseline)

	dc.SetFontFace(fs.get(false, subtitlePx))
	dc.SetColor(canvas.ThemeTeal.Palette().Background)
	dc.DrawString(Subtitle, x, baseline+subtitleShift*k)
}

func (r *Renderer) drawBox(dc *gg.Context, f frame, fs *faces, b canvas.Box, dark bool, titlePx, bodyPx float64) {
	k := f.scale
	x, y, w, h := f.boxRect(b)
	pal := b.Theme.Palette()

	dc.SetColor(pal.Background)
	dc.DrawRoundedRectangle(x, y, w, h, boxRadius*k)
	dc.Fill()
	if b.Theme == canvas.ThemeWhite && !dark {
		dc.SetColor(borderLight)
		dc.SetLineWidth(whiteBoxEdge * k)
		dc.DrawRoundedRectangle(x, y, w, h, boxRadius*k)
		dc.Stroke()
	}

	dc.Push()
	defer dc.Pop()
	dc.DrawRoundedRectangle(x, y, w, h, boxRadius*k)
	dc.Clip()
	defer dc.ResetClip()

	pad := boxPadding * k
	innerW := w - 2*pad
	bottom := y + h - pad
	cursor := y + pad

	dc.SetFontFace(fs.get(true, titlePx))
	dc.SetColor(pal.Title)
	for _, line := range dc.WordWrap(b.Title, innerW) {
		cursor += titlePx * k
		if cursor > bottom {
			return
		}
		dc.DrawString(line, x+pad, cursor)
		cursor += (lineSpacing - 1) * titlePx * k
	}
	cursor += titleGap * k

	dc.SetFontFace(fs.get(false, bodyPx))
	step := bodyPx * lineSpacing * k
	switch b.Kind {
	case canvas.KindList:
		indent := bulletIndent * k
		for _, item := range b.DisplayItems() {
			if strings.TrimSpace(item) == "" {
				continue
			}
			for i, line := range dc.WordWrap(item, innerW-indent) {
				if cursor+bodyPx*k > bottom {
					return
				}
				if i == 0 {
					dc.SetColor(pal.Bullet)
					dc.DrawCircle(x+pad+bulletRadius*k, cursor+bodyPx*k*0.6, bulletRadius*k)
					dc.Fill()
				}
				dc.SetColor(pal.Text)
				dc.DrawString(line, x+pad+indent, cursor+bodyPx*k)
				cursor += step
			}
		}
	default:
		dc.SetColor(pal.Text)
		for _, line := range dc.WordWrap(b.Content, innerW) {
			if cursor+bodyPx*k > bottom {
				return
			}
			dc.DrawString(line, x+pad, cursor+bodyPx*k)
			cursor += step
		}
	}
}

// fitLine truncates s with an ellipsis so it fits in width.
func fitLine(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		candidate := string(r) + "…"
		if w, _ := dc.MeasureString(candidate); w <= width {
			return candidate
		}
	}
	return ""
}
