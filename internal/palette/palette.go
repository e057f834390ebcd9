// Package palette loads categorical color palettes (class code -> label,
// color) and resolves class codes against them.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lcz-tools/predplot/pkg/colormap"
)

// Code identifies a class. Integer codes are kept in their decimal form.
// The empty code means "no class".
type Code string

// ParseCode normalizes a raw class code read from a file or a table cell.
// Whitespace is trimmed and integral floats ("100100.0") collapse to their
// integer form so that codes written by spreadsheet tools match.
func ParseCode(s string) Code {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return Code(strconv.FormatInt(int64(f), 10))
		}
	}
	return Code(s)
}

// UnmarshalJSON accepts a string, a number or null.
func (c *Code) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*c = ""
	case strings.HasPrefix(s, `"`):
		u, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid class code %s", s)
		}
		*c = ParseCode(u)
	default:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("invalid class code %s", s)
		}
		*c = ParseCode(s)
	}
	return nil
}

// Entry is one palette item.
type Entry struct {
	Code  Code       `json:"code"`
	Name  string     `json:"name"`
	Color color.RGBA `json:"-"`
}

// Hex returns the entry color as "#rrggbb".
func (e Entry) Hex() string {
	return colormap.Hex(e.Color)
}

// Palette is an ordered, immutable set of entries with unique codes.
type Palette struct {
	name    string
	entries []Entry
	index   map[Code]int
}

// New validates entries and builds a palette. name identifies the palette
// in error messages (usually the source path).
func New(name string, entries []Entry) (*Palette, error) {
	raw := make([]rawEntry, len(entries))
	for i, e := range entries {
		raw[i] = rawEntry{code: string(e.Code), name: e.Name, color: e.Color, hasColor: true}
	}
	return build(name, raw)
}

// Name returns the palette source label.
func (p *Palette) Name() string {
	return p.name
}

// Len returns the number of entries.
func (p *Palette) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the entries in palette order.
func (p *Palette) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Resolve returns the entry whose code matches exactly.
func (p *Palette) Resolve(code Code) (Entry, error) {
	if i, ok := p.index[code]; ok {
		return p.entries[i], nil
	}
	return Entry{}, &UnknownCodeError{Palette: p.name, Codes: []Code{code}}
}

// ResolveAll resolves every distinct non-empty code. Either all codes
// resolve or none are returned; the error lists every missing code in
// first-seen order.
func (p *Palette) ResolveAll(codes []Code) (map[Code]Entry, error) {
	out := make(map[Code]Entry)
	var missing []Code
	seenMissing := make(map[Code]bool)
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := out[c]; ok {
			continue
		}
		i, ok := p.index[c]
		if !ok {
			if !seenMissing[c] {
				seenMissing[c] = true
				missing = append(missing, c)
			}
			continue
		}
		out[c] = p.entries[i]
	}
	if len(missing) > 0 {
		return nil, &UnknownCodeError{Palette: p.name, Codes: missing}
	}
	return out, nil
}

// Order returns the entries for the codes present in codes, in palette
// order. Unknown and empty codes are ignored.
func (p *Palette) Order(codes []Code) []Entry {
	present := make(map[Code]bool, len(codes))
	for _, c := range codes {
		present[c] = true
	}
	var out []Entry
	for _, e := range p.entries {
		if present[e.Code] {
			out = append(out, e)
		}
	}
	return out
}

// Auto builds a palette for codes using the categorical colormap, in
// first-seen order. It is used when a dataset carries classes but no
// palette was supplied.
func Auto(codes []Code) *Palette {
	p := &Palette{name: "auto", index: make(map[Code]int)}
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := p.index[c]; ok {
			continue
		}
		p.index[c] = len(p.entries)
		p.entries = append(p.entries, Entry{
			Code:  c,
			Name:  string(c),
			Color: colormap.Categorical.AtIndex(len(p.entries)),
		})
	}
	return p
}

// UnknownCodeError reports class codes absent from a palette.
type UnknownCodeError struct {
	Palette string
	Codes   []Code
}

func (e *UnknownCodeError) Error() string {
	if len(e.Codes) == 1 {
		return fmt.Sprintf("unknown class code %q in palette %s", e.Codes[0], e.Palette)
	}
	quoted := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		quoted[i] = strconv.Quote(string(c))
	}
	return fmt.Sprintf("unknown class codes %s in palette %s", strings.Join(quoted, ", "), e.Palette)
}

// Code returns the first offending code.
func (e *UnknownCodeError) Code() Code {
	if len(e.Codes) == 0 {
		return ""
	}
	return e.Codes[0]
}

// FormatError reports a malformed palette source.
type FormatError struct {
	Source string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("palette %s:%d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("palette %s: %s", e.Source, e.Reason)
}

// rawEntry is an entry as read from a source, before validation.
type rawEntry struct {
	line     int
	code     string
	name     string
	colorStr string
	color    color.RGBA
	hasColor bool
}

func build(source string, raw []rawEntry) (*Palette, error) {
	if len(raw) == 0 {
		return nil, &FormatError{Source: source, Reason: "no entries"}
	}
	p := &Palette{
		name:    source,
		entries: make([]Entry, 0, len(raw)),
		index:   make(map[Code]int, len(raw)),
	}
	for _, r := range raw {
		code := ParseCode(r.code)
		if code == "" {
			return nil, &FormatError{Source: source, Line: r.line, Reason: "empty class code"}
		}
		if i, dup := p.index[code]; dup {
			return nil, &FormatError{
				Source: source,
				Line:   r.line,
				Reason: fmt.Sprintf("duplicate class code %q (already used by %q)", code, p.entries[i].Name),
			}
		}

		c := r.color
		if !r.hasColor {
			if strings.TrimSpace(r.colorStr) == "" {
				return nil, &FormatError{Source: source, Line: r.line, Reason: fmt.Sprintf("class code %q has no color", code)}
			}
			parsed, err := colormap.Parse(r.colorStr)
			if err != nil {
				return nil, &FormatError{Source: source, Line: r.line, Reason: err.Error()}
			}
			c = parsed
		}
		if c.A == 0 {
			return nil, &FormatError{Source: source, Line: r.line, Reason: fmt.Sprintf("class code %q has a fully transparent color", code)}
		}

		name := strings.TrimSpace(r.name)
		if name == "" {
			name = string(code)
		}
		p.index[code] = len(p.entries)
		p.entries = append(p.entries, Entry{Code: code, Name: name, Color: c})
	}
	return p, nil
}
