package palette

import (
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func twoClassPalette(t *testing.T) *Palette {
	t.Helper()

	p, err := New("test", []Entry{
		{Code: "A", Name: "Urban", Color: color.RGBA{255, 0, 0, 255}},
		{Code: "B", Name: "Forest", Color: color.RGBA{0, 255, 0, 255}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestResolve(t *testing.T) {
	p := twoClassPalette(t)

	e, err := p.Resolve("B")
	if err != nil {
		t.Fatalf("Resolve(B): %v", err)
	}
	if e.Name != "Forest" || e.Hex() != "#00ff00" {
		t.Fatalf("unexpected entry: %+v", e)
	}

	_, err = p.Resolve("C")
	var unknown *UnknownCodeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCodeError, got %v", err)
	}
	if unknown.Code() != "C" {
		t.Fatalf("unexpected offending code: %q", unknown.Code())
	}
}

func TestResolveAllIsAllOrNothing(t *testing.T) {
	p := twoClassPalette(t)

	got, err := p.ResolveAll([]Code{"A", "", "B", "A"})
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 resolved codes, got %d", len(got))
	}

	got, err = p.ResolveAll([]Code{"A", "X", "B", "Y", "X"})
	if got != nil {
		t.Fatalf("expected no partial result, got %v", got)
	}
	var unknown *UnknownCodeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCodeError, got %v", err)
	}
	if len(unknown.Codes) != 2 || unknown.Codes[0] != "X" || unknown.Codes[1] != "Y" {
		t.Fatalf("unexpected missing codes: %v", unknown.Codes)
	}
	if !strings.Contains(err.Error(), `"X", "Y"`) {
		t.Fatalf("error should list missing codes: %v", err)
	}
}

func TestOrderFollowsPalette(t *testing.T) {
	p := twoClassPalette(t)

	order := p.Order([]Code{"B", "Z", "A", "B"})
	if len(order) != 2 || order[0].Code != "A" || order[1].Code != "B" {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestNewValidation(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	cases := []struct {
		name    string
		entries []Entry
		reason  string
	}{
		{"empty", nil, "no entries"},
		{"emptyCode", []Entry{{Code: " ", Name: "x", Color: red}}, "empty class code"},
		{"duplicate", []Entry{{Code: "1", Color: red}, {Code: "1.0", Color: red}}, "duplicate class code"},
		{"transparent", []Entry{{Code: "1", Color: color.RGBA{}}}, "transparent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("test", tc.entries)
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if !strings.Contains(fe.Reason, tc.reason) {
				t.Fatalf("expected reason containing %q, got %q", tc.reason, fe.Reason)
			}
		})
	}
}

func TestNameDefaultsToCode(t *testing.T) {
	p, err := New("test", []Entry{{Code: "7", Color: color.RGBA{1, 2, 3, 255}}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Entries()[0].Name != "7" {
		t.Fatalf("expected name to default to code, got %q", p.Entries()[0].Name)
	}
}

func TestParseCode(t *testing.T) {
	cases := map[string]Code{
		" 100100 ": "100100",
		"100100.0": "100100",
		"LCZ E":    "LCZ E",
		"2.5":      "2.5",
		"":         "",
	}
	for in, want := range cases {
		if got := ParseCode(in); got != want {
			t.Errorf("ParseCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAuto(t *testing.T) {
	p := Auto([]Code{"b", "", "a", "b"})
	if p.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", p.Len())
	}
	entries := p.Entries()
	if entries[0].Code != "b" || entries[1].Code != "a" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[0].Color == entries[1].Color {
		t.Fatalf("expected distinct colors")
	}
}

func TestLCZ(t *testing.T) {
	p := LCZ()
	if p.Len() != 17 {
		t.Fatalf("expected 17 LCZ classes, got %d", p.Len())
	}
	e, err := p.Resolve("17")
	if err != nil {
		t.Fatalf("Resolve(17): %v", err)
	}
	if e.Hex() != "#6a6aff" {
		t.Fatalf("unexpected water color: %s", e.Hex())
	}
	if LCZ() == p {
		t.Fatalf("expected a fresh palette per call")
	}
}

func TestLoadJSONPair(t *testing.T) {
	p, err := LoadJSONPair("testdata/lcz_num_to_class.json", "testdata/lcz_class_to_palette.json")
	if err != nil {
		t.Fatalf("LoadJSONPair: %v", err)
	}
	entries := p.Entries()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	if entries[0].Code != "100100" || entries[0].Name != "LCZ 1" || entries[0].Hex() != "#8c0000" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[4].Code != "110700" {
		t.Fatalf("expected mapping order to be kept, got %+v", entries[4])
	}
}

func TestLoadJSONPairMissingColor(t *testing.T) {
	_, err := ParseJSONPair("codes.json", []byte(`{"1": "LCZ 1", "2": "LCZ 9"}`), "colors.json", []byte(`{"LCZ 1": "#8c0000"}`))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !strings.Contains(fe.Reason, "LCZ 9") {
		t.Fatalf("unexpected reason: %s", fe.Reason)
	}
}

func TestParseJSONForms(t *testing.T) {
	cases := map[string]string{
		"classToColor": `{"LCZ 1": "#8c0000", "LCZ A": "#006a00"}`,
		"objects":      `{"1": {"name": "LCZ 1", "color": "#8c0000"}, "11": {"name": "LCZ A", "color": "#006a00"}}`,
		"array":        `[{"code": 1, "name": "LCZ 1", "color": "#8c0000"}, {"code": 11, "name": "LCZ A", "color": "#006a00"}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := ParseJSON(name, []byte(doc))
			if err != nil {
				t.Fatalf("ParseJSON: %v", err)
			}
			entries := p.Entries()
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(entries))
			}
			if entries[0].Name != "LCZ 1" || entries[1].Name != "LCZ A" {
				t.Fatalf("unexpected entries: %+v", entries)
			}
		})
	}
}

func TestParseJSONReportsLine(t *testing.T) {
	doc := "{\n  \"1\": \"#8c0000\",\n  \"2\": \"not-a-color\"\n}"
	_, err := ParseJSON("bad.json", []byte(doc))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Line != 3 {
		t.Fatalf("expected line 3, got %d (%v)", fe.Line, err)
	}
}

func TestLoadFormats(t *testing.T) {
	cases := []struct {
		file      string
		firstCode Code
		firstName string
		firstHex  string
		n         int
	}{
		{"lcz.yaml", "100100", "LCZ 1", "#8c0000", 2},
		{"lcz_paletted.qml", "1", "LCZ 1", "#8c0000", 3},
		{"lcz_categorized.qml", "1", "LCZ 1", "#8c0000", 2},
		{"lcz_colormap.txt", "1", "LCZ 1", "#8c0000", 3},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			p, err := Load(filepath.Join("testdata", tc.file))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if p.Len() != tc.n {
				t.Fatalf("expected %d entries, got %d", tc.n, p.Len())
			}
			e := p.Entries()[0]
			if e.Code != tc.firstCode || e.Name != tc.firstName || e.Hex() != tc.firstHex {
				t.Fatalf("unexpected first entry: %+v (%s)", e, e.Hex())
			}
		})
	}
}

func TestLoadCategorizedSecondSymbol(t *testing.T) {
	p, err := Load("testdata/lcz_categorized.qml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, err := p.Resolve("11")
	if err != nil {
		t.Fatalf("Resolve(11): %v", err)
	}
	if e.Hex() != "#006a00" {
		t.Fatalf("unexpected color: %s", e.Hex())
	}
}

func TestParseYAMLMapping(t *testing.T) {
	doc := `
"1": "#8c0000"
"11":
  name: LCZ A
  color: 0,106,0
`
	p, err := ParseYAML("inline.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	entries := p.Entries()
	if entries[0].Name != "1" || entries[1].Name != "LCZ A" || entries[1].Hex() != "#006a00" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseColorMapGDAL(t *testing.T) {
	doc := "nv 0 0 0 0\n1 140 0 0 255 LCZ 1 compact\n2 209 0 0\n"
	p, err := ParseColorMap("gdal.clr", []byte(doc))
	if err != nil {
		t.Fatalf("ParseColorMap: %v", err)
	}
	entries := p.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "LCZ 1 compact" {
		t.Fatalf("unexpected label: %q", entries[0].Name)
	}
	if entries[1].Name != "2" || entries[1].Hex() != "#d10000" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestParseColorMapErrors(t *testing.T) {
	cases := map[string]string{
		"short":     "1,2,3\n",
		"component": "1,a,0,0\n",
		"range":     "1,300,0,0\n",
		"duplicate": "1,1,1,1\n1,2,2,2\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseColorMap(name, []byte(doc))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if fe.Line == 0 {
				t.Fatalf("expected a line number: %v", err)
			}
		})
	}
}

func TestLoadUnsupportedAndMissing(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "palette.ini")
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(p)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil || errors.As(err, &fe) {
		t.Fatalf("expected a read error, got %v", err)
	}
}

func TestCodeUnmarshalJSON(t *testing.T) {
	var rows []struct {
		Class Code `json:"class"`
	}
	doc := `[{"class": 100100}, {"class": " 11 "}, {"class": 2.0}, {"class": null}, {}]`
	if err := json.Unmarshal([]byte(doc), &rows); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := []Code{"100100", "11", "2", "", ""}
	for i, w := range want {
		if rows[i].Class != w {
			t.Errorf("row %d: got %q, want %q", i, rows[i].Class, w)
		}
	}

	var c Code
	if err := json.Unmarshal([]byte(`true`), &c); err == nil {
		t.Fatalf("expected error for boolean code")
	}
}
