// Package main is the entry point for the predplot server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lcz-tools/predplot/internal/api"
	"github.com/lcz-tools/predplot/internal/cache"
	"github.com/lcz-tools/predplot/internal/config"
	"github.com/lcz-tools/predplot/internal/service"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting predplot server on port %d", cfg.Server.Port)

	ctx := context.Background()

	// Initialize cache manager (palettes and rendered plots)
	cacheManager, err := cache.NewManager(cache.Config{
		ImageCacheSizeMB: cfg.Cache.ImageSizeMB,
		ImageTTL:         time.Duration(cfg.Cache.ImageTTLMinutes) * time.Minute,
		PaletteEntries:   cfg.Cache.PaletteEntries,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	// Initialize palette registry; palettes load on first use, but the
	// default is loaded now so a broken config fails at startup.
	registry := service.NewPaletteRegistry(cfg.Palettes, cacheManager)
	log.Printf("Configured %d palette(s), default: %s", len(registry.Names()), registry.DefaultName())
	if p, err := registry.Default(); err != nil {
		log.Fatalf("Failed to load default palette %q: %v", registry.DefaultName(), err)
	} else {
		log.Printf("  [%s] %d classes", registry.DefaultName(), p.Len())
	}

	plotService := service.NewPlotService(service.PlotServiceConfig{
		Registry: registry,
		Cache:    cacheManager,
		Defaults: cfg.Render,
		MaxRows:  cfg.Server.MaxRows,
	})
	log.Printf("Render defaults: backend=%s, %dx%d, max_rows=%d",
		cfg.Render.Backend, cfg.Render.Width, cfg.Render.Height, cfg.Server.MaxRows)

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Service:     plotService,
		Cache:       cacheManager,
		CORSOrigins: cfg.Server.CORSOrigins,
		Title:       cfg.Server.Title,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
