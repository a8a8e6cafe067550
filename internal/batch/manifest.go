package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestEntry describes one produced orthophoto.
type ManifestEntry struct {
	Output     string     `json:"output"`
	Preview    string     `json:"preview,omitempty"`
	Inputs     []string   `json:"inputs"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Bands      int        `json:"bands"`
	Type       string     `json:"type"`
	Bounds     [4]float64 `json:"bounds"` // xmin, ymin, xmax, ymax in mesh coordinates
	Resolution float64    `json:"resolution_cm"`
	EPSG       int        `json:"epsg,omitempty"`
	Offset     [2]float64 `json:"offset"`
	Slivers    int        `json:"slivers_removed"`
	Pixels     int        `json:"pixels_written"`
}

// WriteManifest writes a JSON list of the successful results to path.
func WriteManifest(path string, cfg Config, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		o := r.Output
		entries = append(entries, ManifestEntry{
			Output:     o.Output,
			Preview:    o.Preview,
			Inputs:     r.Job.Inputs,
			Width:      o.Width,
			Height:     o.Height,
			Bands:      o.Bands,
			Type:       o.Type.String(),
			Bounds:     [4]float64{o.Bounds.XMin, o.Bounds.YMin, o.Bounds.XMax, o.Bounds.YMax},
			Resolution: cfg.Options.Resolution,
			EPSG:       cfg.Options.EPSG,
			Offset:     [2]float64{cfg.Options.OffsetX, cfg.Options.OffsetY},
			Slivers:    o.Stats.Slivers,
			Pixels:     o.Stats.Pixels,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("batch: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write manifest %s: %w", path, err)
	}
	return nil
}
