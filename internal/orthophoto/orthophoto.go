// Package orthophoto runs one orthophoto job: load meshes, render them into a
// shared canvas and write the georeferenced result.
package orthophoto

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/geotiff"
	"odm-orthophoto/internal/mesh"
	"odm-orthophoto/internal/pixel"
	"odm-orthophoto/internal/preview"
	"odm-orthophoto/internal/raster"
	"odm-orthophoto/internal/texture"
)

// Job names the inputs and outputs of one render.
type Job struct {
	// Inputs are OBJ files covering the same ground footprint. The first is
	// the primary mesh.
	Inputs []string
	Output string
	// Preview is an optional WebP quick-look path.
	Preview string
}

// Options holds the settings shared by every job of a run.
type Options struct {
	Resolution       float64 // cm per pixel
	EPSG             int
	OffsetX, OffsetY float64
	BigTIFF          geotiff.BigTIFF
	Alpha            bool
	PreviewSize      int
	Logger           *slog.Logger
}

// Result describes a finished job.
type Result struct {
	Output  string
	Preview string
	Width   int
	Height  int
	Bands   int
	Type    pixel.Type
	Bounds  geom.Bbox
	Stats   raster.Stats
	Elapsed time.Duration
}

// Run executes job. A failure while loading, rendering or writing leaves
// nothing at job.Output.
func Run(job Job, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if len(job.Inputs) == 0 {
		return nil, errors.New("orthophoto: no input meshes")
	}
	if job.Output == "" {
		return nil, errors.New("orthophoto: no output path")
	}
	start := time.Now()

	// One decode per texture file across all meshes of the job.
	textures := texture.NewCache()
	meshes := make([]*mesh.Mesh, 0, len(job.Inputs))
	for _, path := range job.Inputs {
		m, err := mesh.Load(path, mesh.Options{Textures: textures, Logger: log})
		if err != nil {
			return nil, err
		}
		log.Info("mesh loaded", "path", path, "vertices", len(m.Vertices),
			"faces", len(m.Faces), "materials", len(m.Used))
		meshes = append(meshes, m)
	}
	log.Debug("textures decoded", "count", textures.Len())

	canvas, stats, err := raster.Render(meshes, raster.Options{
		Resolution: opts.Resolution,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	err = geotiff.WriteFile(job.Output, canvas, geotiff.Options{
		EPSG:    opts.EPSG,
		OffsetX: opts.OffsetX,
		OffsetY: opts.OffsetY,
		BigTIFF: opts.BigTIFF,
		Alpha:   opts.Alpha,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Output: job.Output,
		Width:  canvas.Width,
		Height: canvas.Height,
		Bands:  len(canvas.Bands),
		Type:   canvas.Type,
		Bounds: canvas.Bounds,
		Stats:  stats,
	}
	if job.Preview != "" {
		if err := preview.WriteFile(job.Preview, canvas, opts.PreviewSize); err != nil {
			return nil, fmt.Errorf("orthophoto: %w", err)
		}
		log.Info("wrote preview", "path", job.Preview)
		res.Preview = job.Preview
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
