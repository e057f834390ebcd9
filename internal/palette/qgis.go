package palette

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/lcz-tools/predplot/pkg/colormap"
)

// ParseQML decodes a QGIS layer style. Supported renderers:
//
//   - paletted raster: <paletteEntry value= color= label= alpha=>
//   - color ramp shader: <item value= color= label= alpha=>
//   - categorized vector: <category value= label= symbol=> with the fill
//     color taken from the matching <symbol name=>
func ParseQML(name string, data []byte) (*Palette, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		raw          []rawEntry
		categories   []qmlCategory
		symbolColors = make(map[string]string)
		symbolStack  []string
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return nil, &FormatError{Source: name, Line: line, Reason: err.Error()}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			attrs := attrMap(t.Attr)
			switch t.Name.Local {
			case "paletteEntry", "item":
				e := rawEntry{line: line, code: attrs["value"], name: attrs["label"]}
				c, err := qmlColor(attrs["color"], attrs["alpha"])
				if err != nil {
					return nil, &FormatError{Source: name, Line: line, Reason: err.Error()}
				}
				e.color, e.hasColor = c.rgba, c.ok
				raw = append(raw, e)
			case "category":
				categories = append(categories, qmlCategory{
					line:   line,
					value:  attrs["value"],
					label:  attrs["label"],
					symbol: attrs["symbol"],
				})
			case "symbol":
				symbolStack = append(symbolStack, attrs["name"])
			case "prop", "Option":
				if len(symbolStack) == 0 {
					break
				}
				key, val := attrs["k"], attrs["v"]
				if t.Name.Local == "Option" {
					key, val = attrs["name"], attrs["value"]
				}
				sym := symbolStack[0]
				if key == "color" && val != "" {
					if _, seen := symbolColors[sym]; !seen {
						symbolColors[sym] = trimColorSpec(val)
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "symbol" && len(symbolStack) > 0 {
				symbolStack = symbolStack[:len(symbolStack)-1]
			}
		}
	}

	if len(raw) == 0 {
		for _, c := range categories {
			// The catch-all category of a categorized renderer has an empty value.
			if c.value == "" {
				continue
			}
			raw = append(raw, rawEntry{
				line:     c.line,
				code:     c.value,
				name:     c.label,
				colorStr: symbolColors[c.symbol],
			})
		}
	}
	return build(name, raw)
}

type qmlCategory struct {
	line                 int
	value, label, symbol string
}

type parsedColor struct {
	rgba color.RGBA
	ok   bool
}

func qmlColor(col, alpha string) (parsedColor, error) {
	if strings.TrimSpace(col) == "" {
		return parsedColor{}, nil
	}
	c, err := colormap.Parse(col)
	if err != nil {
		return parsedColor{}, err
	}
	if alpha != "" {
		a, err := strconv.Atoi(strings.TrimSpace(alpha))
		if err != nil || a < 0 || a > 255 {
			return parsedColor{}, fmt.Errorf("invalid alpha %q", alpha)
		}
		c.A = uint8(a)
	}
	return parsedColor{rgba: c, ok: true}, nil
}

// trimColorSpec drops the color space suffix newer QGIS versions append to
// "r,g,b,a" values ("140,0,0,255,rgb:0.549,0,0,1").
func trimColorSpec(v string) string {
	parts := strings.Split(v, ",")
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return strings.Join(parts, ",")
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

// ParseColorMap decodes a QGIS "Export color map to file" document
//
//	# QGIS Generated Color Map Export File
//	INTERPOLATION:EXACT
//	1,140,0,0,255,LCZ 1
//
// or a GDAL/GRASS color table with whitespace separated
// "code R G B [A] [label]" lines. Blank lines, '#' comments, the
// INTERPOLATION header and "nv" (no value) rows are skipped.
func ParseColorMap(name string, data []byte) (*Palette, error) {
	var raw []rawEntry
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(line), "INTERPOLATION:") {
			continue
		}

		var fields []string
		if strings.Contains(line, ",") {
			fields = strings.SplitN(line, ",", 6)
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
		} else {
			fields = strings.Fields(line)
		}
		if strings.EqualFold(fields[0], "nv") {
			continue
		}
		if len(fields) < 4 {
			return nil, &FormatError{Source: name, Line: lineNo, Reason: "expected code,R,G,B[,A][,label]"}
		}

		comps := []int{0, 0, 0, 255}
		n := 3
		if len(fields) >= 5 {
			if _, err := strconv.Atoi(fields[4]); err == nil {
				n = 4
			}
		}
		for i := 0; i < n; i++ {
			v, err := strconv.Atoi(fields[1+i])
			if err != nil {
				return nil, &FormatError{Source: name, Line: lineNo, Reason: fmt.Sprintf("invalid color component %q", fields[1+i])}
			}
			comps[i] = v
		}
		c, err := colormap.FromComponents(comps[0], comps[1], comps[2], comps[3])
		if err != nil {
			return nil, &FormatError{Source: name, Line: lineNo, Reason: err.Error()}
		}

		label := ""
		if rest := fields[1+n:]; len(rest) > 0 {
			if strings.Contains(line, ",") {
				label = strings.Join(rest, ",")
			} else {
				label = strings.Join(rest, " ")
			}
		}
		raw = append(raw, rawEntry{line: lineNo, code: fields[0], name: label, color: c, hasColor: true})
	}
	if err := sc.Err(); err != nil {
		return nil, &FormatError{Source: name, Reason: err.Error()}
	}
	return build(name, raw)
}
