package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lcz-tools/predplot/internal/cache"
	"github.com/lcz-tools/predplot/internal/config"
	"github.com/lcz-tools/predplot/internal/service"
)

// testServer holds the test server and its dependencies
type testServer struct {
	server *httptest.Server
	cache  *cache.Manager
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.DefaultConfig()
	cacheManager, err := cache.NewManager(cache.Config{
		ImageCacheSizeMB: 16,
		ImageTTL:         time.Minute,
		PaletteEntries:   4,
	})
	if err != nil {
		t.Fatalf("Failed to initialize cache: %v", err)
	}

	svc := service.NewPlotService(service.PlotServiceConfig{
		Registry: service.NewPaletteRegistry(cfg.Palettes, cacheManager),
		Cache:    cacheManager,
		Defaults: cfg.Render,
		MaxRows:  100,
	})

	router := NewRouter(RouterConfig{
		Service:     svc,
		Cache:       cacheManager,
		CORSOrigins: []string{"http://localhost:3000"},
		Title:       "test",
	})

	ts := &testServer{server: httptest.NewServer(router), cache: cacheManager}
	t.Cleanup(func() {
		ts.server.Close()
		ts.cache.Close()
	})
	return ts
}

func (ts *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// assertStatusCode verifies the HTTP status code
func assertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status code %d, got %d: %s", expected, resp.StatusCode, body)
	}
}

// assertContentType verifies the Content-Type header
func assertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	if got := resp.Header.Get("Content-Type"); got != expected {
		t.Errorf("Expected Content-Type %q, got %q", expected, got)
	}
}

const plotBody = `{
	"rows": [
		{"actual": 301.2, "predicted": 300.4, "class": 2},
		{"actual": 296.8, "predicted": 297.5, "class": "11"},
		{"actual": 299.0, "predicted": 298.1, "class": 2}
	],
	"scores": {"R2": 0.91, "RMSE": 0.82},
	"labels": {"target": "LST", "units": "K"},
	"options": {"width": 400, "height": 300}
}`

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.get(t, "/health")
	assertStatusCode(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "OK" {
		t.Errorf("Expected body OK, got %q", body)
	}
}

func TestPalettesEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.get(t, "/api/palettes")
	assertStatusCode(t, resp, http.StatusOK)
	assertContentType(t, resp, "application/json")

	var payload struct {
		Default  string                `json:"default"`
		Palettes []service.PaletteInfo `json:"palettes"`
		Title    string                `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if payload.Default != "lcz" || len(payload.Palettes) != 1 || payload.Title != "test" {
		t.Fatalf("Unexpected payload: %+v", payload)
	}
}

func TestPaletteLegendEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.get(t, "/api/palettes/lcz")
	assertStatusCode(t, resp, http.StatusOK)

	var items []service.LegendItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if len(items) != 17 || items[16].Color != "#6a6aff" {
		t.Fatalf("Unexpected legend: %+v", items)
	}

	assertStatusCode(t, ts.get(t, "/api/palettes/missing"), http.StatusNotFound)
}

func TestPlotEndpointPNG(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.post(t, "/api/plots", plotBody)
	assertStatusCode(t, resp, http.StatusOK)
	assertContentType(t, resp, "image/png")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("Expected 400x300 image, got %dx%d", b.Dx(), b.Dy())
	}

	// Second request is served from the image cache.
	again := ts.post(t, "/api/plots", plotBody)
	assertStatusCode(t, again, http.StatusOK)
	cached, _ := io.ReadAll(again.Body)
	if !bytes.Equal(body, cached) {
		t.Errorf("Expected identical bytes for identical requests")
	}

	stats := ts.get(t, "/api/stats")
	var payload map[string]any
	if err := json.NewDecoder(stats.Body).Decode(&payload); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if payload["image_cache_len"] != float64(1) {
		t.Errorf("Expected one cached image, got %v", payload)
	}
}

func TestPlotEndpointSVG(t *testing.T) {
	ts := setupTestServer(t)

	body := strings.Replace(plotBody, `"width": 400`, `"backend": "svg", "width": 400`, 1)
	resp := ts.post(t, "/api/plots", body)
	assertStatusCode(t, resp, http.StatusOK)
	assertContentType(t, resp, "image/svg+xml")

	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte("<svg")) || !bytes.Contains(data, []byte("LCZ 2: Compact mid-rise")) {
		t.Errorf("Expected an svg document with the legend")
	}
}

func TestPlotEndpointErrors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"rows":`, http.StatusBadRequest},
		{"empty", `{"rows": []}`, http.StatusBadRequest},
		{"missing value", `{"rows": [{"actual": 1}]}`, http.StatusBadRequest},
		{"unknown code", `{"rows": [{"actual": 1, "predicted": 1, "class": 99}]}`, http.StatusUnprocessableEntity},
		{"unknown palette", `{"palette": "nope", "rows": [{"actual": 1, "predicted": 1, "class": 1}]}`, http.StatusNotFound},
		{"unknown backend", `{"rows": [{"actual": 1, "predicted": 1}], "options": {"backend": "tikz"}}`, http.StatusBadRequest},
		{"range overflow", `{"rows": [{"actual": -1e308, "predicted": 1e308}]}`, http.StatusBadRequest},
		{"bad corner", `{"rows": [{"actual": 1, "predicted": 1}], "options": {"corner": "middle"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.post(t, "/api/plots", tt.body)
			assertStatusCode(t, resp, tt.status)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.server.URL+"/api/plots", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin, got %q", got)
	}
}
