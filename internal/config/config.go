package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"odm-orthophoto/internal/geotiff"
)

// DefaultOutput is the orthophoto path used when none is configured.
const DefaultOutput = "odm_orthophoto.tif"

// Job is one set of meshes rendered into one orthophoto.
type Job struct {
	Inputs  []string `json:"inputs"`
	Output  string   `json:"output"`
	Preview string   `json:"preview,omitempty"`
}

// Config holds the render settings and the jobs to run.
type Config struct {
	// Single job shorthand
	Inputs  []string `json:"inputs"`
	Output  string   `json:"output"`
	Preview string   `json:"preview"`

	// Several jobs sharing the settings below
	Jobs []Job `json:"jobs"`

	// Render and georeference settings
	Resolution  float64 `json:"resolution"` // cm per pixel
	EPSG        int     `json:"epsg"`
	OffsetX     float64 `json:"offset_x"`
	OffsetY     float64 `json:"offset_y"`
	BigTIFF     string  `json:"bigtiff"`
	NoAlpha     bool    `json:"no_alpha"`
	PreviewSize int     `json:"preview_size"`

	// Run settings
	Workers  int    `json:"workers"`
	Manifest string `json:"manifest"`
	LogLevel string `json:"log_level"`
}

// Load reads a JSON config file and returns Config. Relative paths in the
// file resolve against the file's directory. Fields not set in the file keep
// their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	relAll := func(ps []string) {
		for i := range ps {
			ps[i] = rel(ps[i])
		}
	}

	relAll(cfg.Inputs)
	cfg.Output = rel(cfg.Output)
	cfg.Preview = rel(cfg.Preview)
	cfg.Manifest = rel(cfg.Manifest)
	for i := range cfg.Jobs {
		relAll(cfg.Jobs[i].Inputs)
		cfg.Jobs[i].Output = rel(cfg.Jobs[i].Output)
		cfg.Jobs[i].Preview = rel(cfg.Jobs[i].Preview)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings. Zero
// values leave the file's setting in place; OffsetX and OffsetY are pointers
// because zero is a meaningful offset.
type Flags struct {
	Inputs      []string
	Output      string
	Preview     string
	Resolution  float64
	EPSG        int
	OffsetX     *float64
	OffsetY     *float64
	BigTIFF     string
	NoAlpha     bool
	PreviewSize int
	Workers     int
	Manifest    string
	LogLevel    string
}

// Resolve applies CLI overrides, then fills defaults, then validates.
// Positional inputs on the command line replace any jobs from the file.
func (c *Config) Resolve(flags Flags) error {
	// CLI flags override config file
	if len(flags.Inputs) > 0 {
		c.Inputs = flags.Inputs
		c.Jobs = nil
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Preview != "" {
		c.Preview = flags.Preview
	}
	if flags.Resolution > 0 {
		c.Resolution = flags.Resolution
	}
	if flags.EPSG > 0 {
		c.EPSG = flags.EPSG
	}
	if flags.OffsetX != nil {
		c.OffsetX = *flags.OffsetX
	}
	if flags.OffsetY != nil {
		c.OffsetY = *flags.OffsetY
	}
	if flags.BigTIFF != "" {
		c.BigTIFF = flags.BigTIFF
	}
	if flags.NoAlpha {
		c.NoAlpha = true
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Manifest != "" {
		c.Manifest = flags.Manifest
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	// Defaults
	if c.Resolution == 0 {
		c.Resolution = 5
	}
	if c.BigTIFF == "" {
		c.BigTIFF = string(geotiff.BigTIFFIfSafer)
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 1024
	}
	if c.Workers <= 0 {
		// Each job holds a full canvas in memory.
		c.Workers = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.Jobs) == 0 && c.Output == "" {
		c.Output = DefaultOutput
	}

	return c.validate()
}

func (c *Config) validate() error {
	if !(c.Resolution > 0) {
		return fmt.Errorf("config: resolution must be positive, got %v", c.Resolution)
	}
	if c.EPSG < 0 {
		return fmt.Errorf("config: invalid EPSG code %d", c.EPSG)
	}
	if _, err := geotiff.ParseBigTIFF(c.BigTIFF); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if len(c.JobList()) == 0 {
		return errors.New("config: no input meshes")
	}
	for i, j := range c.JobList() {
		if len(j.Inputs) == 0 {
			return fmt.Errorf("config: job %d has no inputs", i)
		}
		if j.Output == "" {
			return fmt.Errorf("config: job %d has no output", i)
		}
	}
	return nil
}

// JobList returns the configured jobs. Without a jobs list the top-level
// inputs form a single job.
func (c *Config) JobList() []Job {
	if len(c.Jobs) > 0 {
		return c.Jobs
	}
	if len(c.Inputs) == 0 {
		return nil
	}
	return []Job{{Inputs: c.Inputs, Output: c.Output, Preview: c.Preview}}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
