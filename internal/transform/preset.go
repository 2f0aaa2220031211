package transform

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"pixbatch/internal/services"
)

// Preset is a named target format plus the option overrides it applies.
// Zero-valued fields leave the underlying options untouched.
type Preset struct {
	Name          string  `toml:"-" json:"name"`
	Format        Format  `toml:"format" json:"format"`
	Quality       int     `toml:"quality" json:"quality,omitempty"`
	Width         int     `toml:"width" json:"width,omitempty"`
	Height        int     `toml:"height" json:"height,omitempty"`
	Grayscale     bool    `toml:"grayscale" json:"grayscale,omitempty"`
	Sharpen       bool    `toml:"sharpen" json:"sharpen,omitempty"`
	Blur          float64 `toml:"blur" json:"blur,omitempty"`
	Sepia         int     `toml:"sepia" json:"sepia,omitempty"`
	WatermarkText string  `toml:"watermark_text" json:"watermark_text,omitempty"`
}

var builtinPresets = map[string]Preset{
	"web":       {Name: "web", Format: FormatWebP, Quality: 85, Width: 1920},
	"thumbnail": {Name: "thumbnail", Format: FormatJPEG, Quality: 80, Width: 300},
	"print":     {Name: "print", Format: FormatTIFF, Quality: 100},
	"archive":   {Name: "archive", Format: FormatPNG, Quality: 100},
}

// BuiltinPresets returns the presets that ship with pixbatch, sorted by name.
func BuiltinPresets() []Preset {
	names := slices.Sorted(maps.Keys(builtinPresets))
	out := make([]Preset, 0, len(names))
	for _, name := range names {
		out = append(out, builtinPresets[name])
	}
	return out
}

// BuiltinPreset looks up a shipped preset by name.
func BuiltinPreset(name string) (Preset, bool) {
	p, ok := builtinPresets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Apply layers the preset's non-zero fields over o.
func (p Preset) Apply(o Options) Options {
	if p.Quality != 0 {
		o.Quality = p.Quality
	}
	if p.Width != 0 {
		o.Width = p.Width
	}
	if p.Height != 0 {
		o.Height = p.Height
	}
	if p.Grayscale {
		o.Grayscale = true
	}
	if p.Sharpen {
		o.Sharpen = true
	}
	if p.Blur != 0 {
		o.Blur = p.Blur
	}
	if p.Sepia != 0 {
		o.Sepia = p.Sepia
	}
	if strings.TrimSpace(p.WatermarkText) != "" {
		o.WatermarkText = p.WatermarkText
	}
	return o
}

// Validate checks that the preset names a supported format and produces
// valid options when applied to the defaults.
func (p Preset) Validate() error {
	if _, err := ParseFormat(string(p.Format)); err != nil {
		return services.Wrap(services.ErrValidation, "transform", "validate preset",
			fmt.Sprintf("preset %q: unsupported format %q", p.Name, p.Format), nil)
	}
	if err := p.Apply(Defaults()).Normalize().Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return nil
}
