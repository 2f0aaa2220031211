package config

import "pixbatch/internal/transform"

const (
	defaultConfigPath        = "~/.config/pixbatch/config.toml"
	projectConfigName        = "pixbatch.toml"
	defaultOutputDir         = "./converted"
	defaultLogDir            = ""
	defaultEndpoint          = "http://127.0.0.1:8080/internal/convert"
	defaultTimeoutSeconds    = 120
	defaultPreviewConcurrent = 4
	defaultPreviewMaxPixels  = 100_000_000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	apiKeyEnv                = "PIXBATCH_API_KEY"
	endpointEnv              = "PIXBATCH_ENDPOINT"
)

// DefaultEndpoint is the conversion service URL used when none is configured.
const DefaultEndpoint = defaultEndpoint

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Conversion: Conversion{
			Endpoint:       defaultEndpoint,
			TimeoutSeconds: defaultTimeoutSeconds,
			DefaultFormat:  string(transform.DefaultFormat),
		},
		Transform: transform.Defaults(),
		Preview: Preview{
			Concurrency: defaultPreviewConcurrent,
			MaxPixels:   defaultPreviewMaxPixels,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
