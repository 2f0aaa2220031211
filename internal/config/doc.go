// Package config loads, normalizes, and validates pixbatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PIXBATCH_API_KEY. The Config type centralizes the conversion endpoint, the
// default target format and transform options, preview limits, and logging
// settings so the CLI and the batch controller discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
