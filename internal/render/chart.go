package render

import (
	"bytes"
	"fmt"
	"image/color"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartRenderer renders figures through wcharczuk/go-chart. It supports
// PNG and SVG output; geometry is left to go-chart's own layout.
type ChartRenderer struct {
	format Format
}

// NewChartRenderer creates a go-chart renderer producing format f.
func NewChartRenderer(f Format) *ChartRenderer {
	if f == "" {
		f = PNG
	}
	return &ChartRenderer{format: f}
}

// Render draws fig with go-chart.
func (r *ChartRenderer) Render(fig *Figure) (*Image, error) {
	if fig.Width <= 0 || fig.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", fig.Width, fig.Height)
	}
	f, err := chartFont(fig.Style.FontPath)
	if err != nil {
		return nil, err
	}
	fs := fontSize(fig)
	b := fig.Bounds

	var series []chart.Series
	for _, layer := range fig.Layers {
		switch l := layer.(type) {
		case ScatterLayer:
			series = append(series, scatterSeries(fig, l)...)
		case LineLayer:
			series = append(series, chart.ContinuousSeries{
				Name:    l.Label,
				XValues: []float64{l.X1, l.X2},
				YValues: []float64{l.Y1, l.Y2},
				Style: chart.Style{
					StrokeColor: drawingColor(l.Color),
					StrokeWidth: l.Width,
				},
			})
		case TextLayer:
			series = append(series, annotationSeries(b, l, fs))
		}
	}

	ch := chart.Chart{
		Title:      fig.Title,
		TitleStyle: chart.Style{FontSize: fs * 1.25},
		Width:      fig.Width,
		Height:     fig.Height,
		Font:       f,
		Background: chart.Style{Padding: chart.Box{Top: int(fs * 4), Left: int(fs * 2), Right: int(fs * 2), Bottom: int(fs * 2)}},
		XAxis:      chart.XAxis{Name: fig.XLabel, Range: &chart.ContinuousRange{Min: b.XMin, Max: b.XMax}},
		YAxis:      chart.YAxis{Name: fig.YLabel, Range: &chart.ContinuousRange{Min: b.YMin, Max: b.YMax}},
		Series:     series,
	}
	xMajor, xMinor := Ticks(b.XMin, b.XMax)
	yMajor, yMinor := Ticks(b.YMin, b.YMax)
	ch.XAxis.Ticks = chartTicks(xMajor)
	ch.YAxis.Ticks = chartTicks(yMajor)
	if fig.Style.ShowGrid {
		major := chart.Style{StrokeColor: drawing.ColorFromHex("d3d3d3"), StrokeWidth: 0.8}
		minor := chart.Style{StrokeColor: drawing.ColorFromHex("d3d3d3"), StrokeWidth: 0.5, StrokeDashArray: []float64{1, 3}}
		ch.XAxis.GridMajorStyle, ch.XAxis.GridMinorStyle = major, minor
		ch.YAxis.GridMajorStyle, ch.YAxis.GridMinorStyle = major, minor
		ch.XAxis.GridLines = gridLines(xMajor, xMinor)
		ch.YAxis.GridLines = gridLines(yMajor, yMinor)
	}
	if len(fig.Legend.Entries) > 0 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	provider := chart.PNG
	if r.format == SVG {
		provider = chart.SVG
	}
	var buf bytes.Buffer
	if err := ch.Render(provider, &buf); err != nil {
		return nil, fmt.Errorf("chart render: %w", err)
	}
	return &Image{Format: r.format, Width: fig.Width, Height: fig.Height, Data: buf.Bytes()}, nil
}

// scatterSeries splits the scatter points into one series per class, in
// legend order, so go-chart's legend lists every class even when two share
// a color. Unclassed points follow in one unnamed series.
func scatterSeries(fig *Figure, l ScatterLayer) []chart.Series {
	radius := l.Radius
	if radius <= 0 {
		radius = 4
	}
	byClass := make(map[string]*chart.ContinuousSeries)
	var order []string
	for _, p := range l.Points {
		s, ok := byClass[p.Class]
		if !ok {
			s = &chart.ContinuousSeries{Style: pointStyle(drawingColor(p.Color), radius)}
			byClass[p.Class] = s
			order = append(order, p.Class)
		}
		s.XValues = append(s.XValues, p.X)
		s.YValues = append(s.YValues, p.Y)
	}

	var out []chart.Series
	seen := make(map[string]bool)
	for _, e := range fig.Legend.Entries {
		if s, ok := byClass[e.Class]; ok && !seen[e.Class] {
			s.Name = e.Label
			out = append(out, *s)
			seen[e.Class] = true
		}
	}
	for _, c := range order {
		if !seen[c] {
			out = append(out, *byClass[c])
			seen[c] = true
		}
	}
	return out
}

// pointStyle renders points only, with no connecting line.
func pointStyle(col drawing.Color, radius float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    radius,
		DotColor:    col,
	}
}

func annotationSeries(b Bounds, l TextLayer, fs float64) chart.AnnotationSeries {
	xSpan, ySpan := b.XMax-b.XMin, b.YMax-b.YMin
	x := b.XMin + 0.03*xSpan
	if !l.Corner.left() {
		x = b.XMax - 0.03*xSpan
	}
	step := 0.06 * ySpan
	y := b.YMax - 0.05*ySpan
	if !l.Corner.top() {
		y = b.YMin + 0.05*ySpan + step*float64(len(l.Lines)-1)
	}

	style := chart.Style{FontSize: fs * 0.85, FontColor: drawingColor(l.Color)}
	var values []chart.Value2
	for i, s := range l.Lines {
		values = append(values, chart.Value2{XValue: x, YValue: y - step*float64(i), Label: s, Style: style})
	}
	return chart.AnnotationSeries{Annotations: values}
}

func chartTicks(vs []float64) []chart.Tick {
	step := tickStep(vs)
	ticks := make([]chart.Tick, 0, len(vs))
	for _, v := range vs {
		ticks = append(ticks, chart.Tick{Value: v, Label: TickLabel(v, step)})
	}
	return ticks
}

func gridLines(major, minor []float64) []chart.GridLine {
	lines := make([]chart.GridLine, 0, len(major)+len(minor))
	for _, v := range minor {
		lines = append(lines, chart.GridLine{Value: v, IsMinor: true})
	}
	for _, v := range major {
		lines = append(lines, chart.GridLine{Value: v})
	}
	return lines
}

func chartFont(path string) (*truetype.Font, error) {
	if path == "" {
		return goRegular()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return f, nil
}

func drawingColor(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
