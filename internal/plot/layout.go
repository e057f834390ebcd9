package plot

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/aclements/go-moremath/stats"

	"github.com/lcz-tools/predplot/internal/palette"
	"github.com/lcz-tools/predplot/internal/render"
	"github.com/lcz-tools/predplot/internal/typeset"
	"github.com/lcz-tools/predplot/pkg/colormap"
)

var (
	identityColor = color.RGBA{0, 0, 0, 191}
	unclassed     = colormap.Gray
)

const identityWidth = 1.0

// Layout validates req, resolves class styles and builds the figure
// without rendering it. Every class code is resolved before any layer is
// built; an unknown code fails the whole request.
func Layout(req Request) (*Figure, error) {
	opts, err := req.Options.withDefaults()
	if err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 {
		return nil, ErrEmptyDataset
	}

	actual := make([]float64, len(req.Rows))
	predicted := make([]float64, len(req.Rows))
	for i, r := range req.Rows {
		if !finite(r.Actual) {
			return nil, &InvalidValueError{Row: i, Field: "actual", Value: r.Actual}
		}
		if !finite(r.Predicted) {
			return nil, &InvalidValueError{Row: i, Field: "predicted", Value: r.Predicted}
		}
		actual[i], predicted[i] = r.Actual, r.Predicted
	}

	var (
		pal    *palette.Palette
		styles map[palette.Code]palette.Entry
		codes  = distinctCodes(req.Rows)
	)
	if !opts.NoHue && len(codes) > 0 {
		pal = req.Palette
		if pal == nil {
			pal = palette.Auto(codes)
		}
		styles, err = pal.ResolveAll(codes)
		if err != nil {
			return nil, fmt.Errorf("resolve class styles: %w", err)
		}
	}

	lo, hi := combinedBounds(actual, predicted)
	pad := (hi - lo) * opts.Padding
	if hi == lo {
		pad = degeneratePad
	}
	bounds := render.Bounds{XMin: lo - pad, XMax: hi + pad, YMin: lo - pad, YMax: hi + pad}
	if !finite(bounds.XMax - bounds.XMin) {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrRangeOverflow, lo, hi)
	}

	points := make([]render.Point, len(req.Rows))
	for i, r := range req.Rows {
		pt := render.Point{X: r.Actual, Y: r.Predicted, Color: colormap.Default}
		if styles != nil {
			pt.Color = unclassed
			if e, ok := styles[r.Class]; ok {
				pt.Color = e.Color
				pt.Class = string(r.Class)
			}
		}
		points[i] = pt
	}

	layers := []render.Layer{
		render.ScatterLayer{Points: points, Radius: opts.MarkerSize},
		render.LineLayer{X1: lo, Y1: lo, X2: hi, Y2: hi, Color: identityColor, Width: identityWidth, Label: "1:1"},
	}
	if !opts.HideScores && len(req.Scores) > 0 {
		layers = append(layers, render.TextLayer{
			Lines:  req.Scores.Lines(opts.Precision),
			Corner: opts.Corner,
			Color:  colormap.Black,
		})
	}

	labels := req.Labels.withDefaults()
	fig := &Figure{
		Width:  opts.Width,
		Height: opts.Height,
		Title:  typeset.Plain(labels.Title),
		XLabel: typeset.Plain(labels.XLabel),
		YLabel: typeset.Plain(labels.YLabel),
		Bounds: bounds,
		Layers: layers,
		Style: render.Style{
			FontSize: opts.FontSize,
			FontPath: opts.FontPath,
			ShowGrid: !opts.HideGrid,
		},
	}
	if pal != nil && !opts.HideLegend {
		fig.Legend.Title = typeset.Plain(labels.HueTitle)
		for _, e := range pal.Order(codes) {
			fig.Legend.Entries = append(fig.Legend.Entries, render.LegendEntry{
				Class: string(e.Code),
				Label: typeset.Plain(e.Name),
				Color: e.Color,
			})
		}
	}
	return fig, nil
}

// withDefaults fills empty labels. Axis labels read "Actual <target>
// [<units>]" when a target or units are given.
func (l Labels) withDefaults() Labels {
	target := strings.TrimSpace(l.Target)
	axis := func(prefix string) string {
		s := prefix
		if target != "" {
			s += " " + target
		}
		if units := strings.TrimSpace(l.Units); units != "" {
			s += " [" + units + "]"
		}
		return s
	}
	if l.XLabel == "" {
		l.XLabel = axis("Actual")
	}
	if l.YLabel == "" {
		l.YLabel = axis("Predicted")
	}
	if l.Title == "" {
		l.Title = strings.TrimSpace("Actual and predicted " + target)
	}
	return l
}

// distinctCodes returns the non-empty class codes in first-seen order.
func distinctCodes(rows []Row) []palette.Code {
	seen := make(map[palette.Code]bool)
	var codes []palette.Code
	for _, r := range rows {
		if r.Class == "" || seen[r.Class] {
			continue
		}
		seen[r.Class] = true
		codes = append(codes, r.Class)
	}
	return codes
}

func combinedBounds(actual, predicted []float64) (float64, float64) {
	aMin, aMax := stats.Bounds(actual)
	pMin, pMax := stats.Bounds(predicted)
	return math.Min(aMin, pMin), math.Max(aMax, pMax)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
