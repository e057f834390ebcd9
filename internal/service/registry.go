package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lcz-tools/predplot/internal/cache"
	"github.com/lcz-tools/predplot/internal/config"
	"github.com/lcz-tools/predplot/internal/palette"
)

// ErrUnknownPalette is returned for palette names absent from the config.
var ErrUnknownPalette = errors.New("unknown palette")

// PaletteInfo describes a configured palette for the API response.
type PaletteInfo struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Default bool   `json:"default"`
}

// PaletteRegistry holds the configured palettes and loads them on first
// use.
type PaletteRegistry struct {
	sources        map[string]config.PaletteSource
	defaultPalette string
	paletteOrder   []string
	cache          *cache.Manager

	// loadMu serializes loads so concurrent first requests parse a file
	// once; mu guards loaded.
	loadMu sync.Mutex
	mu     sync.Mutex
	loaded map[string]*palette.Palette
}

// NewPaletteRegistry creates a registry for cfg. c may be nil, in which
// case loaded palettes are kept for the registry's lifetime.
func NewPaletteRegistry(cfg config.PalettesConfig, c *cache.Manager) *PaletteRegistry {
	return &PaletteRegistry{
		sources:        cfg.Sources,
		defaultPalette: cfg.Default,
		paletteOrder:   cfg.Names(),
		cache:          c,
		loaded:         make(map[string]*palette.Palette),
	}
}

// Names returns all palette names in config order.
func (r *PaletteRegistry) Names() []string {
	return r.paletteOrder
}

// DefaultName returns the default palette name.
func (r *PaletteRegistry) DefaultName() string {
	return r.defaultPalette
}

// Default returns the default palette.
func (r *PaletteRegistry) Default() (*palette.Palette, error) {
	return r.Get(r.defaultPalette)
}

// Get returns the named palette, loading it if needed.
func (r *PaletteRegistry) Get(name string) (*palette.Palette, error) {
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	if p, ok := r.cached(name); ok {
		return p, nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if p, ok := r.cached(name); ok {
		return p, nil
	}

	p, err := loadSource(src)
	if err != nil {
		return nil, fmt.Errorf("palette %q: %w", name, err)
	}
	if r.cache != nil {
		r.cache.SetPalette(name, p)
	} else {
		r.mu.Lock()
		r.loaded[name] = p
		r.mu.Unlock()
	}
	return p, nil
}

func (r *PaletteRegistry) cached(name string) (*palette.Palette, bool) {
	if r.cache != nil {
		return r.cache.GetPalette(name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.loaded[name]
	return p, ok
}

// Palettes returns info for all configured palettes.
func (r *PaletteRegistry) Palettes() []PaletteInfo {
	infos := make([]PaletteInfo, 0, len(r.paletteOrder))
	for _, name := range r.paletteOrder {
		infos = append(infos, PaletteInfo{
			Name:    name,
			Source:  describeSource(r.sources[name]),
			Default: name == r.defaultPalette,
		})
	}
	return infos
}

func loadSource(src config.PaletteSource) (*palette.Palette, error) {
	switch {
	case src.Builtin != "":
		if strings.EqualFold(src.Builtin, "lcz") {
			return palette.LCZ(), nil
		}
		return nil, fmt.Errorf("unknown builtin palette %q", src.Builtin)
	case src.Codes != "":
		return palette.LoadJSONPair(src.Codes, src.Colors)
	default:
		return palette.Load(src.Path)
	}
}

func describeSource(src config.PaletteSource) string {
	switch {
	case src.Builtin != "":
		return "builtin:" + src.Builtin
	case src.Codes != "":
		return src.Codes + "+" + src.Colors
	}
	return src.Path
}
