// Package service provides the plotting logic shared by the HTTP API and
// the command line tool.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/lcz-tools/predplot/internal/cache"
	"github.com/lcz-tools/predplot/internal/config"
	"github.com/lcz-tools/predplot/internal/palette"
	"github.com/lcz-tools/predplot/internal/plot"
	"github.com/lcz-tools/predplot/internal/render"
	"github.com/lcz-tools/predplot/internal/score"
)

// ErrTooManyRows is returned when a request exceeds the row limit.
var ErrTooManyRows = errors.New("too many rows")

// RowInput is one observation as sent by clients. Missing numbers decode
// as nil and are rejected as invalid values.
type RowInput struct {
	Actual    *float64     `json:"actual"`
	Predicted *float64     `json:"predicted"`
	Class     palette.Code `json:"class,omitempty"`
}

// LabelsInput are optional label overrides.
type LabelsInput struct {
	Title    string `json:"title,omitempty"`
	XLabel   string `json:"x_label,omitempty"`
	YLabel   string `json:"y_label,omitempty"`
	Target   string `json:"target,omitempty"`
	Units    string `json:"units,omitempty"`
	HueTitle string `json:"hue_title,omitempty"`
}

// OptionsInput are per-request overrides of the configured render options.
// Zero values keep the configured value.
type OptionsInput struct {
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Backend    string  `json:"backend,omitempty"`
	Format     string  `json:"format,omitempty"`
	MarkerSize float64 `json:"marker_size,omitempty"`
	Precision  int     `json:"precision,omitempty"`
	Corner     string  `json:"corner,omitempty"`
	Padding    float64 `json:"padding,omitempty"`
	NoHue      bool    `json:"no_hue,omitempty"`
	HideScores bool    `json:"hide_scores,omitempty"`
	HideLegend bool    `json:"hide_legend,omitempty"`
	HideGrid   bool    `json:"hide_grid,omitempty"`
}

// PlotInput is a plot request as sent by clients.
type PlotInput struct {
	// Palette names a configured palette; empty selects the default.
	Palette string     `json:"palette,omitempty"`
	Rows    []RowInput `json:"rows"`
	// Scores keep their JSON object order.
	Scores score.Set `json:"scores,omitempty"`
	// ComputeScores fills Scores from the rows when none are given.
	ComputeScores bool         `json:"compute_scores,omitempty"`
	Labels        LabelsInput  `json:"labels"`
	Options       OptionsInput `json:"options"`
}

// LegendItem is one palette entry for clients.
type LegendItem struct {
	Code  palette.Code `json:"code"`
	Name  string       `json:"name"`
	Color string       `json:"color"`
}

// PlotServiceConfig contains plot service configuration.
type PlotServiceConfig struct {
	Registry *PaletteRegistry
	// Cache is optional; without it every request is rendered.
	Cache    *cache.Manager
	Defaults config.RenderConfig
	MaxRows  int
}

// PlotService renders plots for clients.
type PlotService struct {
	registry *PaletteRegistry
	cache    *cache.Manager
	defaults plot.Options
	maxRows  int
}

// NewPlotService creates a new plot service.
func NewPlotService(cfg PlotServiceConfig) *PlotService {
	return &PlotService{
		registry: cfg.Registry,
		cache:    cfg.Cache,
		defaults: OptionsFromConfig(cfg.Defaults),
		maxRows:  cfg.MaxRows,
	}
}

// Registry returns the palette registry.
func (s *PlotService) Registry() *PaletteRegistry {
	return s.registry
}

// OptionsFromConfig converts configured render settings to plot options.
func OptionsFromConfig(rc config.RenderConfig) plot.Options {
	return plot.Options{
		Width:      rc.Width,
		Height:     rc.Height,
		Backend:    render.Backend(rc.Backend),
		Format:     render.Format(rc.Format),
		MarkerSize: rc.MarkerSize,
		Precision:  rc.Precision,
		Corner:     render.Corner(rc.Corner),
		Padding:    rc.Padding,
		FontPath:   rc.FontPath,
		FontSize:   rc.FontSize,
	}
}

func (s *PlotService) options(in OptionsInput) plot.Options {
	o := s.defaults
	if in.Width != 0 {
		o.Width = in.Width
	}
	if in.Height != 0 {
		o.Height = in.Height
	}
	if in.Backend != "" {
		o.Backend = render.Backend(in.Backend)
		// The configured format may not suit the requested backend.
		o.Format = ""
	}
	if in.Format != "" {
		o.Format = render.Format(in.Format)
	}
	if in.MarkerSize != 0 {
		o.MarkerSize = in.MarkerSize
	}
	if in.Precision != 0 {
		o.Precision = in.Precision
	}
	if in.Corner != "" {
		o.Corner = render.Corner(in.Corner)
	}
	if in.Padding != 0 {
		o.Padding = in.Padding
	}
	o.NoHue = in.NoHue
	o.HideScores = in.HideScores
	o.HideLegend = in.HideLegend
	o.HideGrid = in.HideGrid
	return o
}

// Request converts in to a plot request, resolving the palette by name.
// The returned name is the palette used, or "" when rows carry no codes.
func (s *PlotService) Request(in PlotInput) (plot.Request, string, error) {
	if len(in.Rows) == 0 {
		return plot.Request{}, "", plot.ErrEmptyDataset
	}
	if s.maxRows > 0 && len(in.Rows) > s.maxRows {
		return plot.Request{}, "", fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(in.Rows), s.maxRows)
	}

	req := plot.Request{
		Rows:    make([]plot.Row, len(in.Rows)),
		Scores:  in.Scores,
		Labels:  plot.Labels(in.Labels),
		Options: s.options(in.Options),
	}
	hasCodes := false
	for i, r := range in.Rows {
		req.Rows[i] = plot.Row{Actual: valueOrNaN(r.Actual), Predicted: valueOrNaN(r.Predicted), Class: r.Class}
		if r.Class != "" {
			hasCodes = true
		}
	}

	if in.ComputeScores && len(req.Scores) == 0 {
		actual := make([]float64, len(req.Rows))
		predicted := make([]float64, len(req.Rows))
		for i, r := range req.Rows {
			actual[i], predicted[i] = r.Actual, r.Predicted
		}
		scores, err := score.Compute(actual, predicted)
		if err != nil {
			return plot.Request{}, "", err
		}
		req.Scores = scores.Finite()
	}

	name := ""
	if hasCodes && !req.Options.NoHue {
		name = in.Palette
		if name == "" {
			name = s.registry.DefaultName()
		}
		p, err := s.registry.Get(name)
		if err != nil {
			return plot.Request{}, "", err
		}
		req.Palette = p
	}
	return req, name, nil
}

// Render composes the plot described by in. Identical inputs are served
// from the image cache when one is configured.
func (s *PlotService) Render(ctx context.Context, in PlotInput) (*render.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, paletteName, err := s.Request(in)
	if err != nil {
		return nil, err
	}

	format := req.Options.Format
	if format == "" {
		format = render.DefaultFormat(req.Options.Backend)
	}

	var key string
	if s.cache != nil {
		payload, err := json.Marshal(struct {
			Rows    []plot.Row
			Scores  score.Set
			Labels  plot.Labels
			Options plot.Options
		}{req.Rows, req.Scores, req.Labels, req.Options})
		if err == nil {
			key = cache.ImageKey(paletteName, string(format), payload)
			if data, ok := s.cache.GetImage(key); ok {
				w, h := req.Options.Width, req.Options.Height
				if w == 0 {
					w = plot.DefaultWidth
				}
				if h == 0 {
					h = plot.DefaultHeight
				}
				return &render.Image{Format: format, Width: w, Height: h, Data: data}, nil
			}
		}
	}

	img, err := plot.Compose(req)
	if err != nil {
		return nil, err
	}
	if key != "" {
		// A full cache only costs a re-render later.
		_ = s.cache.SetImage(key, img.Data)
	}
	return img, nil
}

// Legend returns the entries of the named palette; "" selects the default.
func (s *PlotService) Legend(name string) ([]LegendItem, error) {
	if name == "" {
		name = s.registry.DefaultName()
	}
	p, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	entries := p.Entries()
	items := make([]LegendItem, len(entries))
	for i, e := range entries {
		items[i] = LegendItem{Code: e.Code, Name: e.Name, Color: e.Hex()}
	}
	return items, nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
