package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pixbatch/internal/transform"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Conversion contains settings for the remote conversion service.
type Conversion struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	DefaultFormat  string `toml:"default_format"`
}

// Preview contains limits for out-of-band preview decoding.
type Preview struct {
	Concurrency int   `toml:"concurrency"`
	MaxPixels   int64 `toml:"max_pixels"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for pixbatch.
//
// Configuration sections:
//   - Paths: output and log directories
//   - Conversion: service endpoint, credentials, timeout, default format
//   - Transform: default transform options for new batches
//   - Preview: decode concurrency and pixel limit
//   - Logging: log format and level
//   - Presets: named format and option bundles, overriding built-ins by name
type Config struct {
	Paths      Paths                       `toml:"paths"`
	Conversion Conversion                  `toml:"conversion"`
	Transform  transform.Options           `toml:"transform"`
	Preview    Preview                     `toml:"preview"`
	Logging    Logging                     `toml:"logging"`
	Presets    map[string]transform.Preset `toml:"presets"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// ResolvePath reports which configuration file Load would read for path and
// whether it exists.
func ResolvePath(path string) (string, bool, error) {
	return resolveConfigPath(path)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// DefaultFormat returns the parsed default target format.
func (c *Config) DefaultFormat() transform.Format {
	format, err := transform.ParseFormat(c.Conversion.DefaultFormat)
	if err != nil {
		return transform.DefaultFormat
	}
	return format
}

// Preset resolves name against the configured presets first and the
// built-ins second.
func (c *Config) Preset(name string) (transform.Preset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := c.Presets[key]; ok {
		return p, nil
	}
	if p, ok := transform.BuiltinPreset(key); ok {
		return p, nil
	}
	names := make([]string, 0, len(c.Presets)+4)
	for _, p := range c.AllPresets() {
		names = append(names, p.Name)
	}
	return transform.Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(names, ", "))
}

// AllPresets returns the built-in presets merged with the configured ones,
// sorted by name.
func (c *Config) AllPresets() []transform.Preset {
	merged := make(map[string]transform.Preset, len(c.Presets)+4)
	for _, p := range transform.BuiltinPresets() {
		merged[p.Name] = p
	}
	for name, p := range c.Presets {
		merged[name] = p
	}
	out := make([]transform.Preset, 0, len(merged))
	for _, name := range slices.Sorted(maps.Keys(merged)) {
		out = append(out, merged[name])
	}
	return out
}

// ConversionTimeout returns the per-request timeout for the conversion service.
func (c *Config) ConversionTimeout() time.Duration {
	return time.Duration(c.Conversion.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
