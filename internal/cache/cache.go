// Package cache provides caching for loaded palettes and rendered plots.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lcz-tools/predplot/internal/palette"
)

// Config contains cache configuration.
type Config struct {
	ImageCacheSizeMB int
	ImageTTL         time.Duration
	PaletteEntries   int
}

// Manager manages the palette and image caches. It is safe for concurrent
// use.
type Manager struct {
	imageCache   *bigcache.BigCache
	paletteCache *lru.Cache[string, *palette.Palette]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.ImageTTL <= 0 {
		return nil, errors.New("image TTL must be positive")
	}

	imageCacheConfig := bigcache.Config{
		// Few shards: HardMaxCacheSize is split across them and each shard
		// must hold a whole plot.
		Shards:             16,
		LifeWindow:         cfg.ImageTTL,
		CleanWindow:        cfg.ImageTTL / 2,
		MaxEntriesInWindow: 1000,
		MaxEntrySize:       64 * 1024,
		HardMaxCacheSize:   cfg.ImageCacheSizeMB,
		Verbose:            false,
	}

	imageCache, err := bigcache.New(context.Background(), imageCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	paletteCache, err := lru.New[string, *palette.Palette](cfg.PaletteEntries)
	if err != nil {
		imageCache.Close()
		return nil, fmt.Errorf("failed to create palette cache: %w", err)
	}

	return &Manager{
		imageCache:   imageCache,
		paletteCache: paletteCache,
	}, nil
}

// GetImage retrieves an encoded plot from cache.
func (m *Manager) GetImage(key string) ([]byte, bool) {
	data, err := m.imageCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetImage stores an encoded plot in cache.
func (m *Manager) SetImage(key string, data []byte) error {
	return m.imageCache.Set(key, data)
}

// GetPalette retrieves a loaded palette. Palettes are immutable, so the
// cached value is shared.
func (m *Manager) GetPalette(name string) (*palette.Palette, bool) {
	return m.paletteCache.Get(name)
}

// SetPalette stores a loaded palette.
func (m *Manager) SetPalette(name string, p *palette.Palette) {
	m.paletteCache.Add(name, p)
}

// ImageKey generates a cache key for a plot. payload must be a canonical
// encoding of everything that affects the rendered bytes.
func ImageKey(paletteName, format string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(paletteName))
	h.Write([]byte{0})
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write(payload)
	return fmt.Sprintf("plot:%s:%s:%s", paletteName, format, hex.EncodeToString(h.Sum(nil))[:32])
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"image_cache_len":   m.imageCache.Len(),
		"image_cache_cap":   m.imageCache.Capacity(),
		"palette_cache_len": m.paletteCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.imageCache.Close()
}
