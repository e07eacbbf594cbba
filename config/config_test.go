package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != ":8080" {
		t.Errorf("port = %q, want :8080", cfg.Server.Port)
	}
	if cfg.Pipeline.DefaultThreshold != 0.5 {
		t.Errorf("default threshold = %v, want 0.5", cfg.Pipeline.DefaultThreshold)
	}
	if cfg.Inference.ConfidenceScale != "percent" {
		t.Errorf("confidence scale = %q, want percent", cfg.Inference.ConfidenceScale)
	}
	if cfg.Inference.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Inference.Timeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  mode: release
inference:
  model: fish/3
  confidence_scale: unit
pipeline:
  default_threshold: 0.23
  max_concurrent: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != ":9090" {
		t.Errorf("port = %q, want :9090", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("mode = %q, want release", cfg.Server.Mode)
	}
	if cfg.Inference.Model != "fish/3" {
		t.Errorf("model = %q, want fish/3", cfg.Inference.Model)
	}
	if cfg.Inference.ConfidenceScale != "unit" {
		t.Errorf("scale = %q, want unit", cfg.Inference.ConfidenceScale)
	}
	if cfg.Pipeline.DefaultThreshold != 0.23 {
		t.Errorf("threshold = %v, want 0.23", cfg.Pipeline.DefaultThreshold)
	}
	if cfg.Pipeline.MaxConcurrent != 2 {
		t.Errorf("max concurrent = %d, want 2", cfg.Pipeline.MaxConcurrent)
	}
	// untouched keys keep defaults
	if cfg.Upload.MaxSize != 10*1024*1024 {
		t.Errorf("max size = %d, want default", cfg.Upload.MaxSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RF_API_KEY", "secret")
	t.Setenv("PORT", "5000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Inference.APIKey != "secret" {
		t.Errorf("api key = %q, want secret", cfg.Inference.APIKey)
	}
	if cfg.Server.Port != ":5000" {
		t.Errorf("port = %q, want :5000", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad scale", "inference:\n  confidence_scale: fraction\n"},
		{"threshold above one", "pipeline:\n  default_threshold: 1.5\n"},
		{"zero concurrency", "pipeline:\n  max_concurrent: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewReturnsInvalidConfigError(t *testing.T) {
	dir := t.TempDir()
	body := `
inference:
  confidence_scale: unit
pipeline:
  max_concurrent: 0
palette:
  file: custom.yaml
`
	if err := os.WriteFile(filepath.Join(dir, DefaultPath), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := New()
	if err == nil {
		t.Fatalf("New returned config %+v, want error for max_concurrent 0", cfg)
	}
	if cfg != nil {
		t.Errorf("New returned non-nil config with error: %+v", cfg)
	}
}

func TestNewKeepsFileSettings(t *testing.T) {
	dir := t.TempDir()
	body := "inference:\n  confidence_scale: unit\npalette:\n  file: custom.yaml\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultPath), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Inference.ConfidenceScale != "unit" || cfg.Palette.File != "custom.yaml" {
		t.Errorf("scale=%q palette=%q, want unit and custom.yaml", cfg.Inference.ConfidenceScale, cfg.Palette.File)
	}
}

func TestNewWithoutFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
