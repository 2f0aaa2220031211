package config

import (
	"fmt"
	"os"
	"strings"

	"pixbatch/internal/transform"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	c.Transform = c.Transform.Normalize()
	c.normalizePreview()
	c.normalizeLogging()
	c.normalizePresets()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConversion() {
	if value, ok := os.LookupEnv(endpointEnv); ok && strings.TrimSpace(value) != "" {
		c.Conversion.Endpoint = value
	}
	c.Conversion.Endpoint = strings.TrimSpace(c.Conversion.Endpoint)
	if c.Conversion.Endpoint == "" {
		c.Conversion.Endpoint = defaultEndpoint
	}
	if strings.TrimSpace(c.Conversion.APIKey) == "" {
		if value, ok := os.LookupEnv(apiKeyEnv); ok {
			c.Conversion.APIKey = value
		}
	}
	c.Conversion.APIKey = strings.TrimSpace(c.Conversion.APIKey)
	if c.Conversion.TimeoutSeconds == 0 {
		c.Conversion.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.Conversion.DefaultFormat = strings.ToLower(strings.TrimSpace(c.Conversion.DefaultFormat))
	if c.Conversion.DefaultFormat == "" {
		c.Conversion.DefaultFormat = string(transform.DefaultFormat)
	}
	if format, err := transform.ParseFormat(c.Conversion.DefaultFormat); err == nil {
		c.Conversion.DefaultFormat = string(format)
	}
}

func (c *Config) normalizePreview() {
	if c.Preview.Concurrency == 0 {
		c.Preview.Concurrency = defaultPreviewConcurrent
	}
	if c.Preview.MaxPixels == 0 {
		c.Preview.MaxPixels = defaultPreviewMaxPixels
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizePresets() {
	if len(c.Presets) == 0 {
		return
	}
	normalized := make(map[string]transform.Preset, len(c.Presets))
	for name, p := range c.Presets {
		key := strings.ToLower(strings.TrimSpace(name))
		p.Name = key
		if format, err := transform.ParseFormat(string(p.Format)); err == nil {
			p.Format = format
		}
		p.WatermarkText = strings.TrimSpace(p.WatermarkText)
		normalized[key] = p
	}
	c.Presets = normalized
}
