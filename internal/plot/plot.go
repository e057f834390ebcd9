// Package plot composes actual-vs-predicted scatter plots.
//
// A Request carries the observations, optional per-row class codes, an
// optional palette and precomputed scores. Layout validates it and builds a
// backend-neutral Figure with three layers in fixed order: scatter markers,
// the 1:1 identity line and the score annotation. Compose renders that
// figure; Plot additionally writes it to disk.
package plot

import (
	"errors"
	"fmt"
	"math"

	"github.com/lcz-tools/predplot/internal/palette"
	"github.com/lcz-tools/predplot/internal/render"
	"github.com/lcz-tools/predplot/internal/score"
)

// Figure is the laid out chart handed to a renderer.
type Figure = render.Figure

// Row is one observation.
type Row struct {
	Actual    float64
	Predicted float64
	// Class is the optional class code; empty means no class.
	Class palette.Code
}

// Labels are the text shown around the axes. Empty fields get defaults
// derived from Target and Units.
type Labels struct {
	Title    string
	XLabel   string
	YLabel   string
	Target   string
	Units    string
	HueTitle string
}

// Options control presentation. The zero value selects every default.
type Options struct {
	Width  int
	Height int
	// Backend is gg (default), chart or svg.
	Backend render.Backend
	// Format defaults to the backend's native format, or to the
	// extension of the output path.
	Format render.Format
	// MarkerSize is the marker radius in pixels.
	MarkerSize float64
	// Precision is the number of decimals in the score text. Zero selects
	// DefaultPrecision; a negative value prints no decimals.
	Precision int
	Corner    render.Corner
	// Padding is the fraction of the data range added on each side of the
	// axes. Zero selects DefaultPadding; a negative value disables it.
	Padding  float64
	FontPath string
	FontSize float64

	NoHue      bool
	HideScores bool
	HideLegend bool
	HideGrid   bool
}

const (
	DefaultWidth      = 900
	DefaultHeight     = 700
	DefaultMarkerSize = 4.0
	DefaultPrecision  = score.DefaultPrecision
	DefaultCorner     = render.TopLeft
	DefaultPadding    = 0.05
	DefaultFontSize   = 12.0

	// degeneratePad is the half-width of the axes when every value is
	// equal, so a single observation still gets a visible frame.
	degeneratePad = 0.5
)

// Request is one plotting call.
type Request struct {
	Rows   []Row
	Scores score.Set
	// Palette resolves class codes. When nil and rows carry codes, colors
	// come from the categorical colormap in first-seen order.
	Palette *palette.Palette
	Labels  Labels
	Options Options
	// OutputPath is written by Plot when set.
	OutputPath string
}

var (
	// ErrEmptyDataset is returned for requests without rows.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrRangeOverflow is returned when the padded axis span of finite
	// values does not fit in a float64.
	ErrRangeOverflow = errors.New("value range overflows")
)

// InvalidValueError reports a non-finite actual or predicted value.
type InvalidValueError struct {
	Row   int
	Field string
	Value float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("row %d: %s value %v is not finite", e.Row, e.Field, e.Value)
}

// OptionError reports an unusable option.
type OptionError struct {
	Option string
	Value  any
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid option %s=%v: %s", e.Option, e.Value, e.Reason)
}

// withDefaults validates o and fills zero values.
func (o Options) withDefaults() (Options, error) {
	if o.Width < 0 {
		return o, &OptionError{Option: "width", Value: o.Width, Reason: "must be positive"}
	}
	if o.Height < 0 {
		return o, &OptionError{Option: "height", Value: o.Height, Reason: "must be positive"}
	}
	if o.MarkerSize < 0 || math.IsNaN(o.MarkerSize) {
		return o, &OptionError{Option: "marker_size", Value: o.MarkerSize, Reason: "must be positive"}
	}
	if o.FontSize < 0 || math.IsNaN(o.FontSize) {
		return o, &OptionError{Option: "font_size", Value: o.FontSize, Reason: "must be positive"}
	}
	if math.IsNaN(o.Padding) || math.IsInf(o.Padding, 0) {
		return o, &OptionError{Option: "padding", Value: o.Padding, Reason: "must be finite"}
	}
	if o.Corner != "" && !o.Corner.Valid() {
		return o, &OptionError{Option: "corner", Value: o.Corner, Reason: "expected top-left, top-right, bottom-left or bottom-right"}
	}

	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Backend == "" {
		o.Backend = render.BackendGG
	}
	if o.Format == "" {
		o.Format = render.DefaultFormat(o.Backend)
	}
	if o.MarkerSize == 0 {
		o.MarkerSize = DefaultMarkerSize
	}
	switch {
	case o.Precision == 0:
		o.Precision = DefaultPrecision
	case o.Precision < 0:
		o.Precision = 0
	}
	if o.Corner == "" {
		o.Corner = DefaultCorner
	}
	switch {
	case o.Padding == 0:
		o.Padding = DefaultPadding
	case o.Padding < 0:
		o.Padding = 0
	}
	if o.FontSize == 0 {
		o.FontSize = DefaultFontSize
	}
	return o, nil
}
