package render

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/lcz-tools/predplot/pkg/colormap"
)

var (
	regularOnce sync.Once
	regularFont *truetype.Font
	regularErr  error
)

func goRegular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = truetype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// GGRenderer rasterizes figures to PNG with fogleman/gg. Each Render call
// draws on its own canvas; only encode buffers are pooled.
type GGRenderer struct {
	bufferPool sync.Pool
}

// NewGGRenderer creates a new raster renderer.
func NewGGRenderer() *GGRenderer {
	return &GGRenderer{
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 64*1024))
			},
		},
	}
}

// faces holds the font faces used by one render. Faces are not safe for
// concurrent use, so they are created per call.
type faces struct {
	title, label, small font.Face
}

func (r *GGRenderer) loadFaces(st Style) (*faces, error) {
	size := st.FontSize
	if size <= 0 {
		size = defaultFont
	}
	if st.FontPath != "" {
		load := func(pts float64) (font.Face, error) {
			f, err := gg.LoadFontFace(st.FontPath, pts)
			if err != nil {
				return nil, fmt.Errorf("failed to load font %s: %w", st.FontPath, err)
			}
			return f, nil
		}
		title, err := load(size * 1.25)
		if err != nil {
			return nil, err
		}
		label, err := load(size)
		if err != nil {
			return nil, err
		}
		small, err := load(size * 0.85)
		if err != nil {
			return nil, err
		}
		return &faces{title: title, label: label, small: small}, nil
	}

	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("failed to parse builtin font: %w", err)
	}
	return &faces{
		title: truetype.NewFace(f, &truetype.Options{Size: size * 1.25}),
		label: truetype.NewFace(f, &truetype.Options{Size: size}),
		small: truetype.NewFace(f, &truetype.Options{Size: size * 0.85}),
	}, nil
}

// Render draws fig and encodes it as PNG.
func (r *GGRenderer) Render(fig *Figure) (*Image, error) {
	if fig.Width <= 0 || fig.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", fig.Width, fig.Height)
	}
	ff, err := r.loadFaces(fig.Style)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(fig.Width, fig.Height)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetFontFace(ff.small)
	fr := axesFrame(fig, legendWidth(fig, func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}))

	r.drawAxes(dc, fig, fr, ff)

	for _, layer := range fig.Layers {
		switch l := layer.(type) {
		case ScatterLayer:
			r.drawScatter(dc, fr, l)
		case LineLayer:
			r.drawLine(dc, fr, l)
		case TextLayer:
			r.drawText(dc, fr, l, ff.small)
		}
	}

	r.drawLegend(dc, fig, fr, ff.small)

	data, err := r.encodeContext(dc)
	if err != nil {
		return nil, err
	}
	return &Image{Format: PNG, Width: fig.Width, Height: fig.Height, Data: data}, nil
}

func (r *GGRenderer) drawAxes(dc *gg.Context, fig *Figure, fr frame, ff *faces) {
	xMajor, xMinor := Ticks(fig.Bounds.XMin, fig.Bounds.XMax)
	yMajor, yMinor := Ticks(fig.Bounds.YMin, fig.Bounds.YMax)

	if fig.Style.ShowGrid {
		dc.SetColor(colormap.LightGray)
		dc.SetLineWidth(0.5)
		dc.SetDash(1, 3)
		for _, x := range xMinor {
			dc.DrawLine(fr.px(x), fr.y0, fr.px(x), fr.bottom())
		}
		for _, y := range yMinor {
			dc.DrawLine(fr.x0, fr.py(y), fr.right(), fr.py(y))
		}
		dc.Stroke()
		dc.SetDash()

		dc.SetLineWidth(0.8)
		for _, x := range xMajor {
			dc.DrawLine(fr.px(x), fr.y0, fr.px(x), fr.bottom())
		}
		for _, y := range yMajor {
			dc.DrawLine(fr.x0, fr.py(y), fr.right(), fr.py(y))
		}
		dc.Stroke()
	}

	dc.SetColor(colormap.Black)
	dc.SetLineWidth(1)
	dc.DrawRectangle(fr.x0, fr.y0, fr.w, fr.h)
	dc.Stroke()

	// Tick marks and labels.
	dc.SetFontFace(ff.small)
	tick := 5.0
	xStep, yStep := tickStep(xMajor), tickStep(yMajor)
	for _, x := range xMajor {
		px := fr.px(x)
		dc.DrawLine(px, fr.bottom(), px, fr.bottom()+tick)
		dc.DrawStringAnchored(TickLabel(x, xStep), px, fr.bottom()+tick+2, 0.5, 1)
	}
	for _, y := range yMajor {
		py := fr.py(y)
		dc.DrawLine(fr.x0-tick, py, fr.x0, py)
		dc.DrawStringAnchored(TickLabel(y, yStep), fr.x0-tick-3, py, 1, 0.5)
	}
	for _, x := range xMinor {
		dc.DrawLine(fr.px(x), fr.bottom(), fr.px(x), fr.bottom()+tick/2)
	}
	for _, y := range yMinor {
		dc.DrawLine(fr.x0-tick/2, fr.py(y), fr.x0, fr.py(y))
	}
	dc.Stroke()

	fs := fontSize(fig)
	dc.SetFontFace(ff.label)
	if fig.XLabel != "" {
		dc.DrawStringAnchored(fig.XLabel, fr.x0+fr.w/2, fr.bottom()+fs*3.5, 0.5, 0.5)
	}
	if fig.YLabel != "" {
		x, y := fr.x0-fs*4.5, fr.y0+fr.h/2
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), x, y)
		dc.DrawStringAnchored(fig.YLabel, x, y, 0.5, 0.5)
		dc.Pop()
	}
	if fig.Title != "" {
		dc.SetFontFace(ff.title)
		dc.DrawStringAnchored(fig.Title, fr.x0+fr.w/2, fr.y0-fs*1.5, 0.5, 0.5)
	}
}

func (r *GGRenderer) drawScatter(dc *gg.Context, fr frame, l ScatterLayer) {
	radius := l.Radius
	if radius <= 0 {
		radius = 4
	}
	dc.Push()
	dc.DrawRectangle(fr.x0, fr.y0, fr.w, fr.h)
	dc.Clip()
	dc.SetLineWidth(0.5)
	for _, p := range l.Points {
		dc.DrawCircle(fr.px(p.X), fr.py(p.Y), radius)
		dc.SetColor(p.Color)
		dc.FillPreserve()
		dc.SetColor(colormap.White)
		dc.Stroke()
	}
	dc.ResetClip()
	dc.Pop()
}

func (r *GGRenderer) drawLine(dc *gg.Context, fr frame, l LineLayer) {
	width := l.Width
	if width <= 0 {
		width = 1
	}
	dc.Push()
	dc.DrawRectangle(fr.x0, fr.y0, fr.w, fr.h)
	dc.Clip()
	dc.SetColor(l.Color)
	dc.SetLineWidth(width)
	dc.DrawLine(fr.px(l.X1), fr.py(l.Y1), fr.px(l.X2), fr.py(l.Y2))
	dc.Stroke()
	dc.ResetClip()
	dc.Pop()
}

func (r *GGRenderer) drawText(dc *gg.Context, fr frame, l TextLayer, face font.Face) {
	if len(l.Lines) == 0 {
		return
	}
	dc.SetFontFace(face)
	lineHeight := dc.FontHeight() * 1.4
	var w float64
	for _, s := range l.Lines {
		sw, _ := dc.MeasureString(s)
		w = math.Max(w, sw)
	}
	pad := 4.0
	h := lineHeight * float64(len(l.Lines))
	x, y := fr.textOrigin(l.Corner, w+2*pad, h+2*pad)

	dc.SetColor(color.RGBA{255, 255, 255, 200})
	dc.DrawRectangle(x, y, w+2*pad, h+2*pad)
	dc.Fill()

	dc.SetColor(l.Color)
	for i, s := range l.Lines {
		dc.DrawStringAnchored(s, x+pad, y+pad+lineHeight*(float64(i)+0.5), 0, 0.5)
	}
}

func (r *GGRenderer) drawLegend(dc *gg.Context, fig *Figure, fr frame, face font.Face) {
	if len(fig.Legend.Entries) == 0 {
		return
	}
	dc.SetFontFace(face)
	fs := fontSize(fig)
	lineHeight := dc.FontHeight() * 1.6
	x := fr.right() + fs*1.5
	y := fr.y0 + lineHeight/2

	dc.SetColor(colormap.Black)
	if fig.Legend.Title != "" {
		dc.DrawStringAnchored(fig.Legend.Title, x, y, 0, 0.5)
		y += lineHeight
	}
	for _, e := range fig.Legend.Entries {
		dc.DrawCircle(x+fs*0.4, y, fs*0.35)
		dc.SetColor(e.Color)
		dc.Fill()
		dc.SetColor(colormap.Black)
		dc.DrawStringAnchored(e.Label, x+fs*1.2, y, 0, 0.5)
		y += lineHeight
	}
}

func (r *GGRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
