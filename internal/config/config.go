// Package config handles configuration loading for predplot.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lcz-tools/predplot/internal/data/table"
)

// Config represents the predplot configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Palettes PalettesConfig `yaml:"palettes"`
	Columns  table.Columns  `yaml:"columns"`
	Render   RenderConfig   `yaml:"render"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Title       string   `yaml:"title"`
	CORSOrigins []string `yaml:"cors_origins"`
	// MaxRows bounds the rows accepted by one plot request.
	MaxRows int `yaml:"max_rows"`
}

// PaletteSource locates one named palette. Exactly one of Path, the
// Codes/Colors pair or Builtin is set.
type PaletteSource struct {
	Path    string `yaml:"path"`
	Codes   string `yaml:"codes"`
	Colors  string `yaml:"colors"`
	Builtin string `yaml:"builtin"`
}

// PalettesConfig holds named palettes in file order. The first palette is
// the default unless Default is set.
type PalettesConfig struct {
	Default string
	Sources map[string]PaletteSource
	order   []string
}

// UnmarshalYAML decodes a mapping of name -> path or name -> source,
// keeping the mapping order. A "default" key selects the default palette.
func (p *PalettesConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: palettes must be a mapping", node.Line)
	}
	p.Sources = make(map[string]PaletteSource)
	p.order = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value == "default" && val.Kind == yaml.ScalarNode {
			p.Default = val.Value
			continue
		}
		var src PaletteSource
		switch val.Kind {
		case yaml.ScalarNode:
			src.Path = val.Value
		case yaml.MappingNode:
			if err := val.Decode(&src); err != nil {
				return err
			}
		default:
			return fmt.Errorf("line %d: palette %q must be a path or a mapping", val.Line, key.Value)
		}
		if _, dup := p.Sources[key.Value]; dup {
			return fmt.Errorf("line %d: duplicate palette %q", key.Line, key.Value)
		}
		p.Sources[key.Value] = src
		p.order = append(p.order, key.Value)
	}
	return nil
}

// Names returns palette names in config order.
func (p PalettesConfig) Names() []string {
	return p.order
}

// RenderConfig contains default plot options.
type RenderConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Backend    string  `yaml:"backend"`
	Format     string  `yaml:"format"`
	MarkerSize float64 `yaml:"marker_size"`
	Precision  int     `yaml:"precision"`
	Corner     string  `yaml:"corner"`
	Padding    float64 `yaml:"padding"`
	FontPath   string  `yaml:"font_path"`
	FontSize   float64 `yaml:"font_size"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	PaletteEntries  int `yaml:"palette_entries"`
	ImageSizeMB     int `yaml:"image_size_mb"`
	ImageTTLMinutes int `yaml:"image_ttl_minutes"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Title:       "predplot",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			MaxRows:     1_000_000,
		},
		Palettes: PalettesConfig{
			Default: "lcz",
			Sources: map[string]PaletteSource{"lcz": {Builtin: "lcz"}},
			order:   []string{"lcz"},
		},
		Columns: table.DefaultColumns(),
		Render: RenderConfig{
			Width:      900,
			Height:     700,
			Backend:    "gg",
			MarkerSize: 4,
			Precision:  2,
			Corner:     "top-left",
			Padding:    0.05,
			FontSize:   12,
		},
		Cache: CacheConfig{
			PaletteEntries:  64,
			ImageSizeMB:     256,
			ImageTTLMinutes: 10,
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.Title == "" {
		cfg.Server.Title = defaults.Server.Title
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.MaxRows == 0 {
		cfg.Server.MaxRows = defaults.Server.MaxRows
	}
	if len(cfg.Palettes.order) == 0 {
		cfg.Palettes = defaults.Palettes
	}
	if cfg.Palettes.Default == "" {
		cfg.Palettes.Default = cfg.Palettes.order[0]
	}
	if cfg.Columns.Actual == "" {
		cfg.Columns.Actual = defaults.Columns.Actual
	}
	if cfg.Columns.Predicted == "" {
		cfg.Columns.Predicted = defaults.Columns.Predicted
	}
	if cfg.Columns.Class == "" {
		cfg.Columns.Class = defaults.Columns.Class
	}
	if cfg.Render.Width == 0 {
		cfg.Render.Width = defaults.Render.Width
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = defaults.Render.Height
	}
	if cfg.Render.Backend == "" {
		cfg.Render.Backend = defaults.Render.Backend
	}
	if cfg.Render.MarkerSize == 0 {
		cfg.Render.MarkerSize = defaults.Render.MarkerSize
	}
	if cfg.Render.Precision == 0 {
		cfg.Render.Precision = defaults.Render.Precision
	}
	if cfg.Render.Corner == "" {
		cfg.Render.Corner = defaults.Render.Corner
	}
	if cfg.Render.Padding == 0 {
		cfg.Render.Padding = defaults.Render.Padding
	}
	if cfg.Render.FontSize == 0 {
		cfg.Render.FontSize = defaults.Render.FontSize
	}
	if cfg.Cache.PaletteEntries == 0 {
		cfg.Cache.PaletteEntries = defaults.Cache.PaletteEntries
	}
	if cfg.Cache.ImageSizeMB == 0 {
		cfg.Cache.ImageSizeMB = defaults.Cache.ImageSizeMB
	}
	if cfg.Cache.ImageTTLMinutes == 0 {
		cfg.Cache.ImageTTLMinutes = defaults.Cache.ImageTTLMinutes
	}
}

func (c *Config) validate() error {
	if _, ok := c.Palettes.Sources[c.Palettes.Default]; !ok {
		return fmt.Errorf("default palette %q is not configured", c.Palettes.Default)
	}
	for _, name := range c.Palettes.order {
		src := c.Palettes.Sources[name]
		n := 0
		if src.Path != "" {
			n++
		}
		if src.Codes != "" || src.Colors != "" {
			if src.Codes == "" || src.Colors == "" {
				return fmt.Errorf("palette %q: codes and colors must be set together", name)
			}
			n++
		}
		if src.Builtin != "" {
			n++
		}
		if n != 1 {
			return fmt.Errorf("palette %q: set exactly one of path, codes/colors or builtin", name)
		}
	}
	return nil
}
