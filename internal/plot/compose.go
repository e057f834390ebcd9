package plot

import (
	"fmt"

	"github.com/lcz-tools/predplot/internal/render"
)

// Compose lays out req and renders it with the configured backend. Nothing
// is rendered when validation or style resolution fails.
func Compose(req Request) (*render.Image, error) {
	if req.Options.Format == "" && req.OutputPath != "" {
		req.Options.Format = render.FormatFromPath(req.OutputPath)
		// gg only rasterizes; an .svg path without a backend means svg.
		if req.Options.Backend == "" && req.Options.Format == render.SVG {
			req.Options.Backend = render.BackendSVG
		}
	}
	opts, err := req.Options.withDefaults()
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(opts.Backend, opts.Format)
	if err != nil {
		return nil, err
	}

	fig, err := Layout(req)
	if err != nil {
		return nil, err
	}
	img, err := renderer.Render(fig)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Backend, err)
	}
	return img, nil
}

// Plot composes req and writes the image to req.OutputPath when set.
func Plot(req Request) (*render.Image, error) {
	img, err := Compose(req)
	if err != nil {
		return nil, err
	}
	if req.OutputPath != "" {
		if err := Save(img, req.OutputPath); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// Save writes img to path atomically.
func Save(img *render.Image, path string) error {
	if err := img.WriteFile(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
