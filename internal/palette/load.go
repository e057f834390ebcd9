package palette

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lcz-tools/predplot/internal/data/source"
)

// Load reads a palette file. The format is chosen from the extension
// (ignoring a trailing .gz or .zst):
//
//	.json        ordered object or array of {code, name, color}
//	.yaml, .yml  sequence or mapping of {code, name, color}
//	.qml, .xml   QGIS layer style
//	.txt, .clr   QGIS color map export or GDAL color table
func Load(path string) (*Palette, error) {
	data, err := source.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}
	return Parse(path, source.Ext(path), data)
}

// Parse decodes palette data in the format named by ext.
func Parse(name, ext string, data []byte) (*Palette, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return ParseJSON(name, data)
	case ".yaml", ".yml":
		return ParseYAML(name, data)
	case ".qml", ".xml":
		return ParseQML(name, data)
	case ".txt", ".clr", ".csv":
		return ParseColorMap(name, data)
	}
	return nil, &FormatError{Source: name, Reason: fmt.Sprintf("unsupported palette format %q", ext)}
}

// ParseJSON decodes one of:
//
//	{"<code>": "#rrggbb", ...}                      code doubles as name
//	{"<code>": {"name": "...", "color": "..."}, ...}
//	[{"code": ..., "name": "...", "color": "..."}, ...]
//
// Object key order is the palette order.
func ParseJSON(name string, data []byte) (*Palette, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, &FormatError{Source: name, Reason: err.Error()}
	}

	var raw []rawEntry
	switch tok {
	case json.Delim('['):
		for dec.More() {
			line := lineAt(data, dec.InputOffset())
			var item map[string]any
			if err := dec.Decode(&item); err != nil {
				return nil, &FormatError{Source: name, Line: line, Reason: err.Error()}
			}
			e := rawEntry{line: line, code: scalarString(item["code"])}
			e.name, _ = item["name"].(string)
			e.colorStr, _ = item["color"].(string)
			raw = append(raw, e)
		}
	case json.Delim('{'):
		for dec.More() {
			line := lineAt(data, dec.InputOffset())
			keyTok, err := dec.Token()
			if err != nil {
				return nil, &FormatError{Source: name, Line: line, Reason: err.Error()}
			}
			key, _ := keyTok.(string)
			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, &FormatError{Source: name, Line: line, Reason: err.Error()}
			}
			e := rawEntry{line: line, code: key}
			switch v := value.(type) {
			case string:
				e.name = key
				e.colorStr = v
			case map[string]any:
				e.name, _ = v["name"].(string)
				e.colorStr, _ = v["color"].(string)
			default:
				return nil, &FormatError{Source: name, Line: line, Reason: fmt.Sprintf("class code %q: expected a color string or an object", key)}
			}
			raw = append(raw, e)
		}
	default:
		return nil, &FormatError{Source: name, Reason: "expected a JSON object or array"}
	}
	return build(name, raw)
}

// LoadJSONPair builds a palette from the two-file layout: a code -> class
// name mapping and a class name -> color mapping. Palette order follows
// the code mapping.
func LoadJSONPair(codeToClassPath, classToColorPath string) (*Palette, error) {
	codes, err := source.ReadFile(codeToClassPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read class mapping: %w", err)
	}
	colors, err := source.ReadFile(classToColorPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read class colors: %w", err)
	}
	return ParseJSONPair(codeToClassPath, codes, classToColorPath, colors)
}

// ParseJSONPair is LoadJSONPair over in-memory documents.
func ParseJSONPair(codesName string, codes []byte, colorsName string, colors []byte) (*Palette, error) {
	classes, err := orderedStrings(codesName, codes)
	if err != nil {
		return nil, err
	}
	classColors, err := orderedStrings(colorsName, colors)
	if err != nil {
		return nil, err
	}
	colorByClass := make(map[string]string, len(classColors))
	for _, kv := range classColors {
		colorByClass[kv.key] = kv.value
	}

	raw := make([]rawEntry, 0, len(classes))
	for _, kv := range classes {
		c, ok := colorByClass[kv.value]
		if !ok {
			return nil, &FormatError{Source: colorsName, Reason: fmt.Sprintf("class %q (code %q) has no color", kv.value, kv.key)}
		}
		raw = append(raw, rawEntry{line: kv.line, code: kv.key, name: kv.value, colorStr: c})
	}
	return build(codesName, raw)
}

type keyValue struct {
	line       int
	key, value string
}

func orderedStrings(name string, data []byte) ([]keyValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, &FormatError{Source: name, Reason: err.Error()}
	}
	if tok != json.Delim('{') {
		return nil, &FormatError{Source: name, Reason: "expected a JSON object"}
	}
	var out []keyValue
	for dec.More() {
		line := lineAt(data, dec.InputOffset())
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &FormatError{Source: name, Line: line, Reason: err.Error()}
		}
		var v string
		if err := dec.Decode(&v); err != nil {
			return nil, &FormatError{Source: name, Line: line, Reason: err.Error()}
		}
		out = append(out, keyValue{line: line, key: keyTok.(string), value: v})
	}
	return out, nil
}

// ParseYAML decodes either a sequence of {code, name, color} mappings or a
// mapping of code -> color string / {name, color}.
func ParseYAML(name string, data []byte) (*Palette, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Source: name, Reason: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &FormatError{Source: name, Reason: "no entries"}
	}
	root := doc.Content[0]

	// Allow the entries to sit under a top-level "entries" key.
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == "entries" && root.Content[i+1].Kind == yaml.SequenceNode {
				root = root.Content[i+1]
				break
			}
		}
	}

	var raw []rawEntry
	switch root.Kind {
	case yaml.SequenceNode:
		for _, item := range root.Content {
			if item.Kind != yaml.MappingNode {
				return nil, &FormatError{Source: name, Line: item.Line, Reason: "expected a mapping with code, name and color"}
			}
			e := rawEntry{line: item.Line}
			for i := 0; i+1 < len(item.Content); i += 2 {
				switch item.Content[i].Value {
				case "code":
					e.code = item.Content[i+1].Value
				case "name", "label":
					e.name = item.Content[i+1].Value
				case "color":
					e.colorStr = item.Content[i+1].Value
				}
			}
			raw = append(raw, e)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			k, v := root.Content[i], root.Content[i+1]
			e := rawEntry{line: k.Line, code: k.Value}
			switch v.Kind {
			case yaml.ScalarNode:
				e.name = k.Value
				e.colorStr = v.Value
			case yaml.MappingNode:
				for j := 0; j+1 < len(v.Content); j += 2 {
					switch v.Content[j].Value {
					case "name", "label":
						e.name = v.Content[j+1].Value
					case "color":
						e.colorStr = v.Content[j+1].Value
					}
				}
			default:
				return nil, &FormatError{Source: name, Line: k.Line, Reason: fmt.Sprintf("class code %q: expected a color or a mapping", k.Value)}
			}
			raw = append(raw, e)
		}
	default:
		return nil, &FormatError{Source: name, Line: root.Line, Reason: "expected a sequence or a mapping"}
	}
	return build(name, raw)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line := 1 + bytes.Count(data[:offset], []byte{'\n'})
	// InputOffset points at the separator before the next value; skip to it.
	rest := data[offset:]
	for _, b := range rest {
		switch b {
		case '\n':
			line++
		case ' ', '\t', '\r', ',', ':':
			continue
		default:
			return line
		}
	}
	return line
}
