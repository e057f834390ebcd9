// Package api provides HTTP handlers for the predplot server.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lcz-tools/predplot/internal/cache"
	"github.com/lcz-tools/predplot/internal/palette"
	"github.com/lcz-tools/predplot/internal/plot"
	"github.com/lcz-tools/predplot/internal/render"
	"github.com/lcz-tools/predplot/internal/service"
)

// maxBodyBytes bounds plot request bodies.
const maxBodyBytes = 64 << 20

// RouterConfig contains router configuration.
type RouterConfig struct {
	Service     *service.PlotService
	Cache       *cache.Manager
	CORSOrigins []string
	Title       string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/palettes", palettesHandler(cfg.Service, cfg.Title))
		r.Get("/palettes/{name}", paletteLegendHandler(cfg.Service))
		r.Post("/plots", plotHandler(cfg.Service))
		r.Get("/stats", statsHandler(cfg.Cache))
	})

	return r
}

func palettesHandler(svc *service.PlotService, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registry := svc.Registry()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"default":  registry.DefaultName(),
			"palettes": registry.Palettes(),
			"title":    title,
		})
	}
}

func paletteLegendHandler(svc *service.PlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Legend(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func plotHandler(svc *service.PlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.PlotInput
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&in); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		img, err := svc.Render(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", img.ContentType())
		w.Header().Set("X-Plot-Width", strconv.Itoa(img.Width))
		w.Header().Set("X-Plot-Height", strconv.Itoa(img.Height))
		w.Write(img.Data)
	}
}

func statsHandler(c *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"cache": false})
			return
		}
		stats := c.Stats()
		stats["cache"] = true
		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps plotting errors to HTTP status codes.
func statusFor(err error) int {
	var (
		unknownCode *palette.UnknownCodeError
		invalid     *plot.InvalidValueError
		option      *plot.OptionError
	)
	switch {
	case errors.Is(err, service.ErrUnknownPalette):
		return http.StatusNotFound
	case errors.As(err, &unknownCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, plot.ErrEmptyDataset),
		errors.Is(err, plot.ErrRangeOverflow),
		errors.Is(err, service.ErrTooManyRows),
		errors.Is(err, render.ErrUnknownBackend),
		errors.Is(err, render.ErrUnsupportedFormat),
		errors.As(err, &invalid),
		errors.As(err, &option):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
