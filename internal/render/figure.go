// Package render rasterizes plot figures. A Figure is a backend-neutral
// description of one chart; Renderers turn it into image bytes.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Bounds are the axis limits in data coordinates.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Point is one scatter marker. Class links the marker to the legend entry
// with the same Class; empty means unclassed.
type Point struct {
	X, Y  float64
	Color color.RGBA
	Class string
}

// Corner selects where the score annotation is drawn inside the axes.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

// Valid reports whether c names a known corner.
func (c Corner) Valid() bool {
	switch c {
	case TopLeft, TopRight, BottomLeft, BottomRight:
		return true
	}
	return false
}

func (c Corner) top() bool  { return c == TopLeft || c == TopRight }
func (c Corner) left() bool { return c == TopLeft || c == BottomLeft }

// LayerKind identifies a layer type.
type LayerKind int

const (
	KindScatter LayerKind = iota
	KindLine
	KindText
)

func (k LayerKind) String() string {
	switch k {
	case KindScatter:
		return "scatter"
	case KindLine:
		return "line"
	case KindText:
		return "text"
	}
	return fmt.Sprintf("LayerKind(%d)", int(k))
}

// Layer is one visual layer. Layers are drawn in slice order.
type Layer interface {
	Kind() LayerKind
}

// ScatterLayer draws filled circular markers.
type ScatterLayer struct {
	Points []Point
	Radius float64
}

// LineLayer draws a straight segment in data coordinates.
type LineLayer struct {
	X1, Y1, X2, Y2 float64
	Color          color.RGBA
	Width          float64
	Label          string
}

// TextLayer draws a block of lines anchored in a corner of the axes.
type TextLayer struct {
	Lines  []string
	Corner Corner
	Color  color.RGBA
}

func (ScatterLayer) Kind() LayerKind { return KindScatter }
func (LineLayer) Kind() LayerKind    { return KindLine }
func (TextLayer) Kind() LayerKind    { return KindText }

// LegendEntry is one class shown in the legend.
type LegendEntry struct {
	Class string
	Label string
	Color color.RGBA
}

// Legend lists classes in display order.
type Legend struct {
	Title   string
	Entries []LegendEntry
}

// Style holds presentation settings shared by all backends.
type Style struct {
	FontSize float64
	FontPath string
	ShowGrid bool
}

// Figure is a fully laid out chart.
type Figure struct {
	Width, Height int
	Title         string
	XLabel        string
	YLabel        string
	Bounds        Bounds
	Layers        []Layer
	Legend        Legend
	Style         Style
}

// Scatter returns the points of every scatter layer, in drawing order.
func (f *Figure) Scatter() []Point {
	var pts []Point
	for _, l := range f.Layers {
		if s, ok := l.(ScatterLayer); ok {
			pts = append(pts, s.Points...)
		}
	}
	return pts
}

// Format is an output encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// FormatFromPath infers the format from a file extension; it returns ""
// for unknown extensions.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG
	case ".svg":
		return SVG
	}
	return ""
}

// Image is an encoded chart. It is owned by the caller.
type Image struct {
	Format Format
	Width  int
	Height int
	Data   []byte
}

// ContentType returns the MIME type of the image.
func (img *Image) ContentType() string {
	return img.Format.ContentType()
}

// WriteTo writes the encoded bytes to w.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.Data)
	return int64(n), err
}

// WriteFile writes the image to path through a temporary file in the same
// directory, so readers never observe a partial image.
func (img *Image) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Renderer encodes a figure.
type Renderer interface {
	Render(fig *Figure) (*Image, error)
}

// Backend names a renderer implementation.
type Backend string

const (
	BackendGG    Backend = "gg"
	BackendChart Backend = "chart"
	BackendSVG   Backend = "svg"
)

// ErrUnknownBackend is returned by New for unsupported backends.
var ErrUnknownBackend = errors.New("unknown render backend")

// ErrUnsupportedFormat is returned when a backend cannot encode a format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// DefaultFormat returns the natural output format of backend b.
func DefaultFormat(b Backend) Format {
	if b == BackendSVG {
		return SVG
	}
	return PNG
}

// New returns the renderer for backend b producing format f. Empty values
// select the gg backend and its default format.
func New(b Backend, f Format) (Renderer, error) {
	if b == "" {
		b = BackendGG
	}
	if f == "" {
		f = DefaultFormat(b)
	}
	switch b {
	case BackendGG:
		if f != PNG {
			return nil, fmt.Errorf("%w: backend %s writes png, not %s", ErrUnsupportedFormat, b, f)
		}
		return NewGGRenderer(), nil
	case BackendSVG:
		if f != SVG {
			return nil, fmt.Errorf("%w: backend %s writes svg, not %s", ErrUnsupportedFormat, b, f)
		}
		return NewSVGRenderer(), nil
	case BackendChart:
		if f != PNG && f != SVG {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
		}
		return NewChartRenderer(f), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, b)
}
