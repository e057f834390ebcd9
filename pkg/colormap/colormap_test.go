package colormap

import (
	"image/color"
	"testing"
)

func TestCategoricalWraps(t *testing.T) {
	t.Parallel()

	if Categorical.Len() != 20 {
		t.Fatalf("expected 20 colors, got %d", Categorical.Len())
	}
	if Categorical.AtIndex(0) != Categorical.AtIndex(20) {
		t.Fatalf("expected index 20 to wrap to 0")
	}
	if Default != (color.RGBA{R: 31, G: 119, B: 180, A: 255}) {
		t.Fatalf("unexpected default color: %#v", Default)
	}
}

func TestParseHex(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}},
		{"00ff00", color.RGBA{0, 255, 0, 255}},
		{"#0f0", color.RGBA{0, 255, 0, 255}},
		{"#8c000080", color.RGBA{140, 0, 0, 128}},
	}
	for _, tc := range cases {
		got, err := ParseHex(tc.in)
		if err != nil {
			t.Fatalf("ParseHex(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseHex(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "#12", "#gggggg", "red"} {
		if _, err := ParseHex(bad); err == nil {
			t.Fatalf("ParseHex(%q) expected error", bad)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	t.Parallel()

	if got := Hex(color.RGBA{255, 0, 0, 255}); got != "#ff0000" {
		t.Fatalf("unexpected hex: %s", got)
	}
	if got := Hex(color.RGBA{1, 2, 3, 4}); got != "#01020304" {
		t.Fatalf("unexpected hex with alpha: %s", got)
	}
}

func TestParseTuple(t *testing.T) {
	t.Parallel()

	got, err := Parse("140,0,0,255")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got != (color.RGBA{140, 0, 0, 255}) {
		t.Fatalf("unexpected color: %#v", got)
	}
	got, err = Parse(" 10, 20, 30 ")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got != (color.RGBA{10, 20, 30, 255}) {
		t.Fatalf("unexpected color: %#v", got)
	}
	if _, err := Parse("300,0,0"); err == nil {
		t.Fatalf("expected out of range error")
	}
}
