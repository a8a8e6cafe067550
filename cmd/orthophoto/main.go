package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"odm-orthophoto/internal/batch"
	"odm-orthophoto/internal/config"
	"odm-orthophoto/internal/geotiff"
	"odm-orthophoto/internal/orthophoto"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	resolution := flag.Float64("resolution", 0, "Orthophoto resolution in cm/pixel (default: 5)")
	output := flag.String("output", "", "Output GeoTIFF path (default: odm_orthophoto.tif)")
	epsg := flag.Int("epsg", 0, "EPSG code of the projected coordinate system")
	offsetX := flag.Float64("offset-x", 0, "Easting added to mesh coordinates")
	offsetY := flag.Float64("offset-y", 0, "Northing added to mesh coordinates")
	bigtiff := flag.String("bigtiff", "", "BigTIFF mode: if_safer, yes or no (default: if_safer)")
	noAlpha := flag.Bool("no-alpha", false, "Write nodata instead of a coverage alpha band")
	previewPath := flag.String("preview", "", "Also write a WebP preview to this path")
	previewSize := flag.Int("preview-size", 0, "Longest side of the preview in pixels (default: 1024)")
	workers := flag.Int("workers", 0, "Jobs rendered concurrently (default: 1)")
	manifest := flag.String("manifest", "", "Write a JSON manifest of produced files")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (default: info)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] mesh.obj [mesh2.obj ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	flags := config.Flags{
		Inputs:      flag.Args(),
		Output:      *output,
		Preview:     *previewPath,
		Resolution:  *resolution,
		EPSG:        *epsg,
		BigTIFF:     *bigtiff,
		NoAlpha:     *noAlpha,
		PreviewSize: *previewSize,
		Workers:     *workers,
		Manifest:    *manifest,
		LogLevel:    *logLevel,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "offset-x":
			flags.OffsetX = offsetX
		case "offset-y":
			flags.OffsetY = offsetY
		}
	})

	// CLI flags override config file
	if err := cfg.Resolve(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	mode, _ := geotiff.ParseBigTIFF(cfg.BigTIFF)

	jobs := make([]orthophoto.Job, 0, len(cfg.JobList()))
	for _, j := range cfg.JobList() {
		jobs = append(jobs, orthophoto.Job{Inputs: j.Inputs, Output: j.Output, Preview: j.Preview})
	}

	// Print summary
	fmt.Println("Textured mesh → GeoTIFF orthophoto")
	fmt.Printf("Jobs: %d, Workers: %d, Resolution: %g cm/px\n", len(jobs), cfg.Workers, cfg.Resolution)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	batchCfg := batch.Config{
		Options: orthophoto.Options{
			Resolution:  cfg.Resolution,
			EPSG:        cfg.EPSG,
			OffsetX:     cfg.OffsetX,
			OffsetY:     cfg.OffsetY,
			BigTIFF:     mode,
			Alpha:       !cfg.NoAlpha,
			PreviewSize: cfg.PreviewSize,
			Logger:      logger,
		},
		Workers: cfg.Workers,
	}
	results := batch.Run(batchCfg, jobs)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
			o := r.Output
			fmt.Printf("  %s: %dx%d, %d bands %s\n", o.Output, o.Width, o.Height, o.Bands, o.Type)
		} else {
			failed++
		}
	}
	fmt.Printf("Rendered: %d/%d\n", success, len(jobs))

	if failed > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, r := range results {
			if !r.Success {
				fmt.Printf("  %s: %s\n", r.Job.Output, r.Error)
			}
		}
	}

	// Write manifest
	if cfg.Manifest != "" {
		if err := batch.WriteManifest(cfg.Manifest, batchCfg, results); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			fmt.Printf("Manifest: %s\n", cfg.Manifest)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
