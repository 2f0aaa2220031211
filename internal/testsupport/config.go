package testsupport

import (
	"path/filepath"
	"testing"

	"pixbatch/internal/config"
	"pixbatch/internal/transform"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Conversion.Endpoint = "http://127.0.0.1:0/internal/convert"
	cfgVal.Conversion.APIKey = "test"
	cfgVal.Preview.Concurrency = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithEndpoint points the conversion client at a test server.
func WithEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.Endpoint = endpoint
	}
}

// WithDefaultFormat overrides the configured target format.
func WithDefaultFormat(format transform.Format) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.DefaultFormat = string(format)
	}
}

// WithTransform overrides the configured default transform options.
func WithTransform(opts transform.Options) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transform = opts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
