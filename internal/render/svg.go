package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/lcz-tools/predplot/pkg/colormap"
)

// SVGRenderer writes figures as SVG documents with ajstarks/svgo.
type SVGRenderer struct{}

// NewSVGRenderer creates a new vector renderer.
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{}
}

const clipID = "axes-clip"

// Render writes fig as an SVG document.
func (r *SVGRenderer) Render(fig *Figure) (*Image, error) {
	if fig.Width <= 0 || fig.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", fig.Width, fig.Height)
	}
	fs := fontSize(fig)
	small := fs * 0.85
	fr := axesFrame(fig, legendWidth(fig, func(s string) float64 { return estimateWidth(s, small) }))

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(fig.Width, fig.Height, fmt.Sprintf(`font-size="%.6gpx" font-family="Go,Helvetica,Arial,sans-serif"`, fs))
	canvas.Rect(0, 0, fig.Width, fig.Height, "fill:white")

	renderSVGAxes(canvas, fig, fr)

	canvas.ClipPath(`id="` + clipID + `"`)
	canvas.Rect(ipx(fr.x0), ipx(fr.y0), ipx(fr.w), ipx(fr.h))
	canvas.ClipEnd()

	for _, layer := range fig.Layers {
		switch l := layer.(type) {
		case ScatterLayer:
			radius := l.Radius
			if radius <= 0 {
				radius = 4
			}
			canvas.Group(`clip-path="url(#` + clipID + `)"`)
			for _, p := range l.Points {
				canvas.Circle(ipx(fr.px(p.X)), ipx(fr.py(p.Y)), ipx(radius),
					cssPaint("fill", p.Color)+";stroke:white;stroke-width:0.5")
			}
			canvas.Gend()
		case LineLayer:
			width := l.Width
			if width <= 0 {
				width = 1
			}
			canvas.Group(`clip-path="url(#` + clipID + `)"`)
			canvas.Line(ipx(fr.px(l.X1)), ipx(fr.py(l.Y1)), ipx(fr.px(l.X2)), ipx(fr.py(l.Y2)),
				cssPaint("stroke", l.Color)+";stroke-width:"+strconv.FormatFloat(width, 'g', 4, 64))
			canvas.Gend()
		case TextLayer:
			renderSVGText(canvas, fr, l, small)
		}
	}

	renderSVGLegend(canvas, fig, fr, small)
	canvas.End()

	return &Image{Format: SVG, Width: fig.Width, Height: fig.Height, Data: buf.Bytes()}, nil
}

func renderSVGAxes(canvas *svg.SVG, fig *Figure, fr frame) {
	xMajor, xMinor := Ticks(fig.Bounds.XMin, fig.Bounds.XMax)
	yMajor, yMinor := Ticks(fig.Bounds.YMin, fig.Bounds.YMax)
	x0, y0, x1, y1 := ipx(fr.x0), ipx(fr.y0), ipx(fr.right()), ipx(fr.bottom())

	if fig.Style.ShowGrid {
		canvas.Group("stroke:#d3d3d3;stroke-width:0.5;stroke-dasharray:1,3")
		for _, x := range xMinor {
			canvas.Line(ipx(fr.px(x)), y0, ipx(fr.px(x)), y1)
		}
		for _, y := range yMinor {
			canvas.Line(x0, ipx(fr.py(y)), x1, ipx(fr.py(y)))
		}
		canvas.Gend()
		canvas.Group("stroke:#d3d3d3;stroke-width:0.8")
		for _, x := range xMajor {
			canvas.Line(ipx(fr.px(x)), y0, ipx(fr.px(x)), y1)
		}
		for _, y := range yMajor {
			canvas.Line(x0, ipx(fr.py(y)), x1, ipx(fr.py(y)))
		}
		canvas.Gend()
	}

	canvas.Rect(x0, y0, x1-x0, y1-y0, "fill:none;stroke:black;stroke-width:1")

	fs := fontSize(fig)
	tickFont := fmt.Sprintf(`font-size="%.6gpx"`, fs*0.85)
	xStep, yStep := tickStep(xMajor), tickStep(yMajor)
	for _, x := range xMajor {
		px := ipx(fr.px(x))
		canvas.Line(px, y1, px, y1+5, "stroke:black")
		canvas.Text(px, y1+7, TickLabel(x, xStep), `text-anchor="middle" dy="1em"`, tickFont)
	}
	for _, y := range yMajor {
		py := ipx(fr.py(y))
		canvas.Line(x0-5, py, x0, py, "stroke:black")
		canvas.Text(x0-8, py, TickLabel(y, yStep), `text-anchor="end" dy=".3em"`, tickFont)
	}

	if fig.XLabel != "" {
		canvas.Text(ipx(fr.x0+fr.w/2), ipx(fr.bottom()+fs*3.5), fig.XLabel, `text-anchor="middle" dy=".3em"`)
	}
	if fig.YLabel != "" {
		canvas.TranslateRotate(ipx(fr.x0-fs*4.5), ipx(fr.y0+fr.h/2), -90)
		canvas.Text(0, 0, fig.YLabel, `text-anchor="middle" dy=".3em"`)
		canvas.Gend()
	}
	if fig.Title != "" {
		canvas.Text(ipx(fr.x0+fr.w/2), ipx(fr.y0-fs*1.5), fig.Title,
			`text-anchor="middle" dy=".3em"`, fmt.Sprintf(`font-size="%.6gpx"`, fs*1.25))
	}
}

func renderSVGText(canvas *svg.SVG, fr frame, l TextLayer, size float64) {
	if len(l.Lines) == 0 {
		return
	}
	lineHeight := size * 1.4
	var w float64
	for _, s := range l.Lines {
		w = math.Max(w, estimateWidth(s, size))
	}
	pad := 4.0
	h := lineHeight * float64(len(l.Lines))
	x, y := fr.textOrigin(l.Corner, w+2*pad, h+2*pad)

	canvas.Rect(ipx(x), ipx(y), ipx(w+2*pad), ipx(h+2*pad), "fill:white;fill-opacity:0.8")
	font := fmt.Sprintf(`font-size="%.6gpx"`, size)
	for i, s := range l.Lines {
		canvas.Text(ipx(x+pad), ipx(y+pad+lineHeight*(float64(i)+0.5)), s,
			`dy=".3em"`, font, cssPaint("fill", l.Color))
	}
}

func renderSVGLegend(canvas *svg.SVG, fig *Figure, fr frame, size float64) {
	if len(fig.Legend.Entries) == 0 {
		return
	}
	fs := fontSize(fig)
	lineHeight := size * 1.6
	x := fr.right() + fs*1.5
	y := fr.y0 + lineHeight/2
	font := fmt.Sprintf(`font-size="%.6gpx"`, size)

	if fig.Legend.Title != "" {
		canvas.Text(ipx(x), ipx(y), fig.Legend.Title, `dy=".3em"`, font)
		y += lineHeight
	}
	for _, e := range fig.Legend.Entries {
		canvas.Circle(ipx(x+fs*0.4), ipx(y), ipx(fs*0.35), cssPaint("fill", e.Color))
		canvas.Text(ipx(x+fs*1.2), ipx(y), e.Label, `dy=".3em"`, font)
		y += lineHeight
	}
}

// cssPaint returns a CSS declaration for prop, with opacity when c is
// translucent.
func cssPaint(prop string, c color.RGBA) string {
	s := prop + ":" + colormap.Hex(color.RGBA{c.R, c.G, c.B, 255})
	if c.A != 255 {
		s += ";" + prop + "-opacity:" + strconv.FormatFloat(float64(c.A)/255, 'g', 3, 64)
	}
	return s
}

func ipx(v float64) int {
	return int(math.Round(v))
}
