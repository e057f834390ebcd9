package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_PaletteOrder(t *testing.T) {
	content := `
server:
  port: 9000
palettes:
  wudapt:
    codes: data/lcz_num_to_class.json
    colors: data/lcz_class_to_palette.json
  qgis: config/palettes/lcz.qml
  lcz:
    builtin: lcz
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}

	names := cfg.Palettes.Names()
	if len(names) != 3 || names[0] != "wudapt" || names[1] != "qgis" || names[2] != "lcz" {
		t.Fatalf("unexpected palette order: %v", names)
	}

	// First palette in YAML order should be default
	if cfg.Palettes.Default != "wudapt" {
		t.Errorf("expected default palette 'wudapt', got %q", cfg.Palettes.Default)
	}
	if cfg.Palettes.Sources["qgis"].Path != "config/palettes/lcz.qml" {
		t.Errorf("unexpected qgis source: %+v", cfg.Palettes.Sources["qgis"])
	}
	if cfg.Palettes.Sources["wudapt"].Colors != "data/lcz_class_to_palette.json" {
		t.Errorf("unexpected wudapt source: %+v", cfg.Palettes.Sources["wudapt"])
	}
}

func TestLoad_ExplicitDefaultPalette(t *testing.T) {
	content := `
palettes:
  default: lcz
  qgis: config/palettes/lcz.qml
  lcz:
    builtin: lcz
`
	cfg := loadFromString(t, content)
	if cfg.Palettes.Default != "lcz" {
		t.Errorf("expected default palette 'lcz', got %q", cfg.Palettes.Default)
	}
	if len(cfg.Palettes.Names()) != 2 {
		t.Errorf("expected the default key not to be a palette: %v", cfg.Palettes.Names())
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	content := `
server:
  port: 0
columns:
  class: lcz
render:
  backend: svg
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Cache.ImageSizeMB != 256 {
		t.Errorf("expected default cache size 256, got %d", cfg.Cache.ImageSizeMB)
	}
	if cfg.Render.Width != 900 || cfg.Render.Height != 700 {
		t.Errorf("expected default size 900x700, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.Backend != "svg" {
		t.Errorf("expected backend svg, got %q", cfg.Render.Backend)
	}
	if cfg.Columns.Class != "lcz" || cfg.Columns.Actual != "actual" {
		t.Errorf("unexpected columns: %+v", cfg.Columns)
	}
	if cfg.Palettes.Default != "lcz" || cfg.Palettes.Sources["lcz"].Builtin != "lcz" {
		t.Errorf("expected builtin lcz palette by default, got %+v", cfg.Palettes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default config, got port %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidPalettes(t *testing.T) {
	cases := map[string]string{
		"halfPair":       "palettes:\n  x:\n    codes: a.json\n",
		"twoSources":     "palettes:\n  x:\n    path: a.qml\n    builtin: lcz\n",
		"unknownDefault": "palettes:\n  default: y\n  x: a.qml\n",
		"notMapping":     "palettes:\n  - a.qml\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write temp config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error")
			} else if !strings.Contains(err.Error(), "palette") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
