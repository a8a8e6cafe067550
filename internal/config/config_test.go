package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, `{
		"jobs": [
			{"inputs": ["a/model.obj", "/abs/b.obj"], "output": "out/a.tif", "preview": "out/a.webp"}
		],
		"manifest": "manifest.json",
		"resolution": 2.5
	}`)
	dir := filepath.Dir(path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	j := cfg.Jobs[0]
	if j.Inputs[0] != filepath.Join(dir, "a/model.obj") || j.Inputs[1] != "/abs/b.obj" {
		t.Errorf("inputs = %v", j.Inputs)
	}
	if j.Output != filepath.Join(dir, "out/a.tif") || j.Preview != filepath.Join(dir, "out/a.webp") {
		t.Errorf("outputs = %q %q", j.Output, j.Preview)
	}
	if cfg.Manifest != filepath.Join(dir, "manifest.json") {
		t.Errorf("manifest = %q", cfg.Manifest)
	}
	if cfg.Resolution != 2.5 {
		t.Errorf("resolution = %v", cfg.Resolution)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := Load(writeConfig(t, `{"resolution": "fine"}`)); err == nil {
		t.Error("bad JSON accepted")
	}
}

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Resolve(Flags{Inputs: []string{"m.obj"}}); err != nil {
		t.Fatal(err)
	}
	if cfg.Resolution != 5 || cfg.BigTIFF != "if_safer" || cfg.PreviewSize != 1024 ||
		cfg.Workers != 1 || cfg.LogLevel != "info" || cfg.NoAlpha {
		t.Errorf("defaults = %+v", cfg)
	}
	jobs := cfg.JobList()
	if len(jobs) != 1 || jobs[0].Output != DefaultOutput || jobs[0].Inputs[0] != "m.obj" {
		t.Errorf("jobs = %+v", jobs)
	}
	if l, _ := cfg.Level(); l != slog.LevelInfo {
		t.Errorf("level = %v", l)
	}
}

func TestResolvePrecedence(t *testing.T) {
	path := writeConfig(t, `{
		"inputs": ["file.obj"],
		"output": "file.tif",
		"resolution": 10,
		"epsg": 32617,
		"offset_x": 100,
		"offset_y": 200,
		"bigtiff": "no",
		"workers": 3,
		"log_level": "warn",
		"jobs": [{"inputs": ["j.obj"], "output": "j.tif"}]
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	zero := 0.0
	err = cfg.Resolve(Flags{
		Inputs:     []string{"cli.obj"},
		Output:     "cli.tif",
		Resolution: 2,
		OffsetX:    &zero,
		BigTIFF:    "yes",
		NoAlpha:    true,
		LogLevel:   "debug",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Resolution != 2 || cfg.EPSG != 32617 || cfg.OffsetX != 0 || cfg.OffsetY != 200 {
		t.Errorf("georeference = %v %v %v %v", cfg.Resolution, cfg.EPSG, cfg.OffsetX, cfg.OffsetY)
	}
	if cfg.BigTIFF != "yes" || !cfg.NoAlpha || cfg.Workers != 3 {
		t.Errorf("settings = %+v", cfg)
	}
	jobs := cfg.JobList()
	if len(jobs) != 1 || jobs[0].Inputs[0] != "cli.obj" || jobs[0].Output != "cli.tif" {
		t.Errorf("CLI inputs did not replace file jobs: %+v", jobs)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("level = %v", l)
	}
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		flags Flags
	}{
		{"no inputs", Config{}, Flags{}},
		{"negative resolution", Config{Resolution: -1}, Flags{Inputs: []string{"m.obj"}}},
		{"bad bigtiff", Config{BigTIFF: "sometimes"}, Flags{Inputs: []string{"m.obj"}}},
		{"bad log level", Config{LogLevel: "loud"}, Flags{Inputs: []string{"m.obj"}}},
		{"job without output", Config{Jobs: []Job{{Inputs: []string{"m.obj"}}}}, Flags{}},
		{"job without inputs", Config{Jobs: []Job{{Output: "o.tif"}}}, Flags{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			if err := cfg.Resolve(tc.flags); err == nil {
				t.Error("expected error")
			}
		})
	}
}
