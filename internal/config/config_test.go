package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pixbatch/internal/config"
	"pixbatch/internal/transform"
)

func TestLoadDefaultConfigUsesEnvAPIKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("PIXBATCH_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "pixbatch", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Conversion.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Conversion.APIKey)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.LogDir != "" {
		t.Fatalf("expected empty log dir by default, got %q", cfg.Paths.LogDir)
	}
	if cfg.DefaultFormat() != transform.FormatWebP {
		t.Fatalf("expected webp default, got %q", cfg.DefaultFormat())
	}
	if cfg.ConversionTimeout() != 120*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.ConversionTimeout())
	}
	if cfg.Transform != transform.Defaults() {
		t.Fatalf("expected transform defaults, got %+v", cfg.Transform)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	t.Setenv("PIXBATCH_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
output_dir = "~/out"
log_dir = "~/logs"

[conversion]
endpoint = "https://convert.example.com/internal/convert"
api_key = " file-key "
default_format = "JPG"

[transform]
quality = 80
grayscale = true
watermark_text = "  draft "
watermark_position = "Center"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "out") {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, "logs") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
	if cfg.Conversion.APIKey != "file-key" {
		t.Fatalf("expected trimmed API key, got %q", cfg.Conversion.APIKey)
	}
	if cfg.DefaultFormat() != transform.FormatJPEG {
		t.Fatalf("expected jpeg, got %q", cfg.DefaultFormat())
	}
	if cfg.Transform.Quality != 80 || !cfg.Transform.Grayscale {
		t.Fatalf("unexpected transform %+v", cfg.Transform)
	}
	if cfg.Transform.WatermarkText != "draft" || cfg.Transform.WatermarkPosition != transform.PositionCenter {
		t.Fatalf("expected normalized watermark, got %+v", cfg.Transform)
	}
	if cfg.Transform.WatermarkOpacity != 50 {
		t.Fatalf("expected default opacity to survive partial section, got %d", cfg.Transform.WatermarkOpacity)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"endpoint scheme", "[conversion]\nendpoint = \"ftp://host/x\"\n", "conversion.endpoint"},
		{"format", "[conversion]\ndefault_format = \"bmp\"\n", "conversion.default_format"},
		{"quality", "[transform]\nquality = 101\n", "quality"},
		{"preview", "[preview]\nconcurrency = -1\n", "preview.concurrency"},
		{"log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"unknown key", "[paths]\nstaging_dir = \"/tmp\"\n", "parse config"},
		{"preset format", "[presets.blog]\nformat = \"bmp\"\n", "presets.blog"},
		{"preset missing format", "[presets.blog]\nquality = 80\n", "presets.blog"},
		{"preset range", "[presets.blog]\nformat = \"webp\"\nquality = 400\n", "quality"},
		{"preset unknown key", "[presets.blog]\nformat = \"webp\"\nmax_dim = 10\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Conversion.DefaultFormat != "webp" || decoded.Transform.Quality != 92 {
		t.Fatalf("sample drifted from defaults: %+v", decoded)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}

func TestLoadPrefersProjectFileWhenNoUserConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "pixbatch.toml"), []byte("[preview]\nconcurrency = 2\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "pixbatch.toml" {
		t.Fatalf("expected project config, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Preview.Concurrency != 2 {
		t.Fatalf("expected concurrency 2, got %d", cfg.Preview.Concurrency)
	}
}

func TestResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	path, exists, err := config.ResolvePath("")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if exists || path != filepath.Join(home, ".config", "pixbatch", "config.toml") {
		t.Fatalf("expected missing default path, got %q (exists=%v)", path, exists)
	}

	explicit := filepath.Join(t.TempDir(), "custom.toml")
	if err := config.CreateSample(explicit); err != nil {
		t.Fatal(err)
	}
	path, exists, err = config.ResolvePath(explicit)
	if err != nil {
		t.Fatalf("ResolvePath explicit: %v", err)
	}
	if !exists || path != explicit {
		t.Fatalf("expected %q to exist, got %q (exists=%v)", explicit, path, exists)
	}
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[presets.Blog]
format = "JPG"
quality = 75
width = 1200
watermark_text = " example.com "

[presets.web]
format = "avif"
quality = 60
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	blog, err := cfg.Preset("blog")
	if err != nil {
		t.Fatalf("Preset(blog): %v", err)
	}
	if blog.Name != "blog" || blog.Format != transform.FormatJPEG || blog.Quality != 75 || blog.WatermarkText != "example.com" {
		t.Fatalf("unexpected blog preset %+v", blog)
	}

	web, err := cfg.Preset("web")
	if err != nil {
		t.Fatalf("Preset(web): %v", err)
	}
	if web.Format != transform.FormatAVIF || web.Quality != 60 {
		t.Fatalf("configured preset should replace the built-in, got %+v", web)
	}

	thumb, err := cfg.Preset("thumbnail")
	if err != nil || thumb.Format != transform.FormatJPEG {
		t.Fatalf("expected built-in thumbnail, got %+v (%v)", thumb, err)
	}

	_, err = cfg.Preset("poster")
	if err == nil || !strings.Contains(err.Error(), "archive, blog, print, thumbnail, web") {
		t.Fatalf("expected unknown preset error listing names, got %v", err)
	}
}
