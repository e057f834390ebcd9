// Package main is the predplot command: it renders an actual vs predicted
// scatter plot from a CSV or TSV table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lcz-tools/predplot/internal/config"
	"github.com/lcz-tools/predplot/internal/data/source"
	"github.com/lcz-tools/predplot/internal/data/table"
	"github.com/lcz-tools/predplot/internal/palette"
	"github.com/lcz-tools/predplot/internal/plot"
	"github.com/lcz-tools/predplot/internal/render"
	"github.com/lcz-tools/predplot/internal/score"
	"github.com/lcz-tools/predplot/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		log.Fatal(err)
	}
}

type flags struct {
	configPath    string
	input         string
	output        string
	palette       string
	scores        string
	computeScores bool
	title         string
	target        string
	units         string
	hueTitle      string
	backend       string
	width         int
	height        int
	precision     int
	corner        string
	noHue         bool
	hideScores    bool
	hideLegend    bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("predplot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "config/server.yaml", "Path to configuration file")
	fs.StringVar(&f.input, "input", "", "CSV or TSV table with actual, predicted and class columns (may be gzip or zstd compressed)")
	fs.StringVar(&f.output, "output", "", "Output image path (.png or .svg)")
	fs.StringVar(&f.palette, "palette", "", "Configured palette name or palette file path")
	fs.StringVar(&f.scores, "scores", "", "YAML or JSON file with ordered scores")
	fs.BoolVar(&f.computeScores, "compute-scores", false, "Compute R2, RMSE, MAE and bias from the table")
	fs.StringVar(&f.title, "title", "", "Plot title")
	fs.StringVar(&f.target, "target", "", "Name of the predicted quantity")
	fs.StringVar(&f.units, "units", "", "Units of the predicted quantity")
	fs.StringVar(&f.hueTitle, "hue-title", "", "Legend title")
	fs.StringVar(&f.backend, "backend", "", "Render backend: gg, chart or svg")
	fs.IntVar(&f.width, "width", 0, "Image width in pixels")
	fs.IntVar(&f.height, "height", 0, "Image height in pixels")
	fs.IntVar(&f.precision, "precision", 0, "Decimals shown for scores")
	fs.StringVar(&f.corner, "corner", "", "Score text corner: top-left, top-right, bottom-left or bottom-right")
	fs.BoolVar(&f.noHue, "no-hue", false, "Draw all markers in one color")
	fs.BoolVar(&f.hideScores, "hide-scores", false, "Omit the score text")
	fs.BoolVar(&f.hideLegend, "hide-legend", false, "Omit the legend")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.input == "" || f.output == "" {
		return nil, errors.New("-input and -output are required")
	}
	if f.scores != "" && f.computeScores {
		return nil, errors.New("-scores and -compute-scores are mutually exclusive")
	}
	return f, nil
}

func run(args []string, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	rows, err := table.Read(f.input, cfg.Columns)
	if err != nil {
		return err
	}
	log.Printf("Read %d rows from %s", len(rows), f.input)

	req := plot.Request{
		Rows:       rows,
		Labels:     plot.Labels{Title: f.title, Target: f.target, Units: f.units, HueTitle: f.hueTitle},
		Options:    options(cfg.Render, f),
		OutputPath: f.output,
	}

	switch {
	case f.scores != "":
		if req.Scores, err = loadScores(f.scores); err != nil {
			return err
		}
	case f.computeScores:
		actual := make([]float64, len(rows))
		predicted := make([]float64, len(rows))
		for i, r := range rows {
			actual[i], predicted[i] = r.Actual, r.Predicted
		}
		scores, err := score.Compute(actual, predicted)
		if err != nil {
			return err
		}
		req.Scores = scores.Finite()
	}

	if !req.Options.NoHue && hasCodes(rows) {
		if req.Palette, err = resolvePalette(cfg.Palettes, f.palette); err != nil {
			return err
		}
	}

	img, err := plot.Plot(req)
	if err != nil {
		return err
	}
	log.Printf("Wrote %s (%s, %dx%d)", f.output, img.Format, img.Width, img.Height)
	return nil
}

func options(rc config.RenderConfig, f *flags) plot.Options {
	o := service.OptionsFromConfig(rc)
	if f.backend != "" {
		o.Backend = render.Backend(f.backend)
		o.Format = ""
	} else if render.FormatFromPath(f.output) == render.SVG && o.Backend == render.BackendGG {
		// gg only rasterizes.
		o.Backend = render.BackendSVG
		o.Format = ""
	}
	if f.width != 0 {
		o.Width = f.width
	}
	if f.height != 0 {
		o.Height = f.height
	}
	if f.precision != 0 {
		o.Precision = f.precision
	}
	if f.corner != "" {
		o.Corner = render.Corner(f.corner)
	}
	o.NoHue = f.noHue
	o.HideScores = f.hideScores
	o.HideLegend = f.hideLegend
	return o
}

// resolvePalette treats name as a configured palette first and as a file
// path otherwise.
func resolvePalette(cfg config.PalettesConfig, name string) (*palette.Palette, error) {
	registry := service.NewPaletteRegistry(cfg, nil)
	if name == "" {
		return registry.Default()
	}
	p, err := registry.Get(name)
	if errors.Is(err, service.ErrUnknownPalette) && looksLikePath(name) {
		return palette.Load(name)
	}
	return p, err
}

func looksLikePath(name string) bool {
	if strings.ContainsRune(name, os.PathSeparator) || strings.Contains(name, "/") {
		return true
	}
	_, err := os.Stat(name)
	return err == nil
}

// loadScores reads an ordered score mapping. JSON is valid YAML, so one
// decoder serves both.
func loadScores(path string) (score.Set, error) {
	data, err := source.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s score.Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scores %s: %w", path, err)
	}
	return s, nil
}

func hasCodes(rows []plot.Row) bool {
	for _, r := range rows {
		if r.Class != "" {
			return true
		}
	}
	return false
}
