package config

import (
	"errors"
	"fmt"
	"net/url"

	"pixbatch/internal/transform"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.Transform.Validate(); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validatePresets()
}

func (c *Config) validateConversion() error {
	parsed, err := url.Parse(c.Conversion.Endpoint)
	if err != nil {
		return fmt.Errorf("conversion.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("conversion.endpoint must be an http or https URL, got %q", c.Conversion.Endpoint)
	}
	if parsed.Host == "" {
		return fmt.Errorf("conversion.endpoint is missing a host: %q", c.Conversion.Endpoint)
	}
	if c.Conversion.TimeoutSeconds < 0 {
		return errors.New("conversion.timeout_seconds must be positive")
	}
	if _, err := transform.ParseFormat(c.Conversion.DefaultFormat); err != nil {
		return fmt.Errorf("conversion.default_format: %w", err)
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.Concurrency < 1 {
		return errors.New("preview.concurrency must be at least 1")
	}
	if c.Preview.MaxPixels < 1 {
		return errors.New("preview.max_pixels must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validatePresets() error {
	for name, p := range c.Presets {
		if name == "" {
			return errors.New("presets: preset name must not be empty")
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("presets.%s: %w", name, err)
		}
	}
	return nil
}
