package render

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/aclements/go-moremath/scale"
)

const (
	maxMajorTicks = 8
	defaultFont   = 12.0
	// markerInset keeps score text and legend swatches off the axes frame.
	markerInset = 10.0
)

// frame is the pixel rectangle of the axes and the mapping into it.
type frame struct {
	x0, y0, w, h float64
	b            Bounds
}

// axesFrame lays out a square axes area (equal aspect, as both axes share
// one range) centred in the space left after margins and the legend.
func axesFrame(fig *Figure, legendWidth float64) frame {
	fs := fontSize(fig)
	left, right := fs*6, fs*2+legendWidth
	top, bottom := fs*4, fs*5

	availW := float64(fig.Width) - left - right
	availH := float64(fig.Height) - top - bottom
	side := math.Max(1, math.Min(availW, availH))

	return frame{
		x0: left + math.Max(0, availW-side)/2,
		y0: top + math.Max(0, availH-side)/2,
		w:  side,
		h:  side,
		b:  fig.Bounds,
	}
}

func (f frame) px(x float64) float64 {
	return f.x0 + (x-f.b.XMin)/(f.b.XMax-f.b.XMin)*f.w
}

func (f frame) py(y float64) float64 {
	return f.y0 + f.h - (y-f.b.YMin)/(f.b.YMax-f.b.YMin)*f.h
}

func (f frame) right() float64  { return f.x0 + f.w }
func (f frame) bottom() float64 { return f.y0 + f.h }

// textOrigin returns the top-left pixel of a block of the given size placed
// in corner c of the axes.
func (f frame) textOrigin(c Corner, w, h float64) (float64, float64) {
	x := f.x0 + markerInset
	if !c.left() {
		x = f.right() - markerInset - w
	}
	y := f.y0 + markerInset
	if !c.top() {
		y = f.bottom() - markerInset - h
	}
	return x, y
}

// Ticks returns major and minor tick positions inside [lo, hi].
func Ticks(lo, hi float64) (major, minor []float64) {
	if !(hi > lo) {
		return []float64{lo}, nil
	}
	s := scale.Linear{Min: lo, Max: hi}
	ma, mi := s.Ticks(scale.TickOptions{Max: maxMajorTicks})
	return within(ma, lo, hi), within(mi, lo, hi)
}

func within(vs []float64, lo, hi float64) []float64 {
	eps := (hi - lo) * 1e-9
	out := vs[:0:0]
	for _, v := range vs {
		if v >= lo-eps && v <= hi+eps {
			out = append(out, v)
		}
	}
	return out
}

// TickLabel formats a tick value with the fewest digits that keep
// neighbouring ticks distinct.
func TickLabel(v, step float64) string {
	if v == 0 {
		return "0"
	}
	prec := 0
	if step > 0 && step < 1 {
		prec = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func tickStep(ticks []float64) float64 {
	if len(ticks) < 2 {
		return 1
	}
	return ticks[1] - ticks[0]
}

func fontSize(fig *Figure) float64 {
	if fig.Style.FontSize > 0 {
		return fig.Style.FontSize
	}
	return defaultFont
}

// estimateWidth approximates the rendered width of s for backends without
// font metrics.
func estimateWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.6
}

// legendWidth estimates the horizontal space taken by the legend.
func legendWidth(fig *Figure, measure func(string) float64) float64 {
	if len(fig.Legend.Entries) == 0 {
		return 0
	}
	fs := fontSize(fig)
	w := measure(fig.Legend.Title)
	for _, e := range fig.Legend.Entries {
		w = math.Max(w, fs*1.5+measure(e.Label))
	}
	return w + fs*2
}
