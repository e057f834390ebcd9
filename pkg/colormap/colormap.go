// Package colormap provides color schemes for visualization.
package colormap

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Colormap maps category indices to colors.
type Colormap interface {
	AtIndex(i int) color.RGBA
	Len() int
}

// CategoricalColormap provides distinct colors for categories.
type CategoricalColormap struct {
	colors []color.RGBA
}

// AtIndex returns color at index (wraps around).
func (c CategoricalColormap) AtIndex(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return c.colors[i%len(c.colors)]
}

// Len returns the number of distinct colors.
func (c CategoricalColormap) Len() int {
	return len(c.colors)
}

// Categorical colormap with 20 distinct colors (matplotlib tab20 ordering)
var Categorical = CategoricalColormap{
	colors: []color.RGBA{
		{31, 119, 180, 255},  // Blue
		{255, 127, 14, 255},  // Orange
		{44, 160, 44, 255},   // Green
		{214, 39, 40, 255},   // Red
		{148, 103, 189, 255}, // Purple
		{140, 86, 75, 255},   // Brown
		{227, 119, 194, 255}, // Pink
		{127, 127, 127, 255}, // Gray
		{188, 189, 34, 255},  // Olive
		{23, 190, 207, 255},  // Cyan
		{174, 199, 232, 255}, // Light blue
		{255, 187, 120, 255}, // Light orange
		{152, 223, 138, 255}, // Light green
		{255, 152, 150, 255}, // Light red
		{197, 176, 213, 255}, // Light purple
		{196, 156, 148, 255}, // Light brown
		{247, 182, 210, 255}, // Light pink
		{199, 199, 199, 255}, // Light gray
		{219, 219, 141, 255}, // Light olive
		{158, 218, 229, 255}, // Light cyan
	},
}

// Default is the marker color used when no categorical styling applies.
var Default = Categorical.AtIndex(0)

// Neutral colors shared by the renderers.
var (
	Black     = color.RGBA{0, 0, 0, 255}
	White     = color.RGBA{255, 255, 255, 255}
	LightGray = color.RGBA{211, 211, 211, 255}
	Gray      = color.RGBA{136, 136, 136, 255}
)

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading '#' is optional).
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// Hex formats c as "#rrggbb", appending the alpha byte only when it is not opaque.
func Hex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// FromComponents builds an opaque-by-default color from 0-255 components,
// as found in QGIS and GDAL color tables.
func FromComponents(r, g, b, a int) (color.RGBA, error) {
	for _, v := range []int{r, g, b, a} {
		if v < 0 || v > 255 {
			return color.RGBA{}, fmt.Errorf("color component %d out of range 0-255", v)
		}
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}, nil
}

// Parse accepts either a hex color or a comma separated "r,g,b[,a]" tuple,
// the two notations QGIS writes in its style files.
func Parse(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ",") {
		return ParseHex(s)
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("invalid color tuple %q", s)
	}
	vals := []int{0, 0, 0, 255}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color tuple %q", s)
		}
		vals[i] = v
	}
	return FromComponents(vals[0], vals[1], vals[2], vals[3])
}
