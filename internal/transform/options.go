package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"pixbatch/internal/services"
)

// WatermarkPosition anchors watermark text within the output image.
type WatermarkPosition string

const (
	PositionTopLeft     WatermarkPosition = "top-left"
	PositionTopRight    WatermarkPosition = "top-right"
	PositionBottomLeft  WatermarkPosition = "bottom-left"
	PositionBottomRight WatermarkPosition = "bottom-right"
	PositionCenter      WatermarkPosition = "center"
)

// Positions lists the accepted watermark anchors.
func Positions() []WatermarkPosition {
	return []WatermarkPosition{PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight, PositionCenter}
}

// Valid reports whether p is an accepted anchor.
func (p WatermarkPosition) Valid() bool {
	for _, candidate := range Positions() {
		if p == candidate {
			return true
		}
	}
	return false
}

const (
	DefaultQuality          = 92
	DefaultWatermarkOpacity = 50
	MaxBlur                 = 20.0
)

// Options is the transform configuration shared by every item in a run.
// Zero Width or Height means "keep the source dimension".
type Options struct {
	Quality           int               `toml:"quality" json:"quality"`
	Width             int               `toml:"width" json:"width,omitempty"`
	Height            int               `toml:"height" json:"height,omitempty"`
	Grayscale         bool              `toml:"grayscale" json:"grayscale,omitempty"`
	Sharpen           bool              `toml:"sharpen" json:"sharpen,omitempty"`
	Invert            bool              `toml:"invert" json:"invert,omitempty"`
	Blur              float64           `toml:"blur" json:"blur,omitempty"`
	Sepia             int               `toml:"sepia" json:"sepia,omitempty"`
	Brightness        int               `toml:"brightness" json:"brightness,omitempty"`
	Contrast          int               `toml:"contrast" json:"contrast,omitempty"`
	WatermarkText     string            `toml:"watermark_text" json:"watermark_text,omitempty"`
	WatermarkPosition WatermarkPosition `toml:"watermark_position" json:"watermark_position"`
	WatermarkOpacity  int               `toml:"watermark_opacity" json:"watermark_opacity"`
}

// Defaults returns the options a fresh batch starts with.
func Defaults() Options {
	return Options{
		Quality:           DefaultQuality,
		WatermarkPosition: PositionBottomRight,
		WatermarkOpacity:  DefaultWatermarkOpacity,
	}
}

// Validate checks every field against its accepted range.
func (o Options) Validate() error {
	switch {
	case o.Quality < 1 || o.Quality > 100:
		return invalid("quality", "must be between 1 and 100")
	case o.Width < 0:
		return invalid("width", "must be positive or unset")
	case o.Height < 0:
		return invalid("height", "must be positive or unset")
	case math.IsNaN(o.Blur) || o.Blur < 0 || o.Blur > MaxBlur:
		return invalid("blur", "must be between 0 and 20")
	case o.Sepia < 0 || o.Sepia > 100:
		return invalid("sepia", "must be between 0 and 100")
	case o.Brightness < -100 || o.Brightness > 100:
		return invalid("brightness", "must be between -100 and 100")
	case o.Contrast < -100 || o.Contrast > 100:
		return invalid("contrast", "must be between -100 and 100")
	case !o.WatermarkPosition.Valid():
		return invalid("watermark_position", fmt.Sprintf("unsupported value %q", o.WatermarkPosition))
	case o.WatermarkOpacity < 0 || o.WatermarkOpacity > 100:
		return invalid("watermark_opacity", "must be between 0 and 100")
	}
	return nil
}

// Normalize fills unset enum fields with defaults and trims text.
func (o Options) Normalize() Options {
	o.WatermarkText = strings.TrimSpace(o.WatermarkText)
	o.WatermarkPosition = WatermarkPosition(strings.ToLower(strings.TrimSpace(string(o.WatermarkPosition))))
	if o.WatermarkPosition == "" {
		o.WatermarkPosition = PositionBottomRight
	}
	return o
}

func invalid(field, detail string) error {
	return services.Wrap(services.ErrValidation, "transform", "validate options", field+" "+detail, nil)
}

// Field is one multipart form value sent to the conversion service.
type Field struct {
	Name  string
	Value string
}

// Fields renders the options as form fields in wire order. Optional values
// are omitted when unset.
func (o Options) Fields() []Field {
	fields := make([]Field, 0, 13)
	add := func(name, value string) {
		fields = append(fields, Field{Name: name, Value: value})
	}
	add("quality", strconv.Itoa(o.Quality))
	if o.Width > 0 {
		add("width", strconv.Itoa(o.Width))
	}
	if o.Height > 0 {
		add("height", strconv.Itoa(o.Height))
	}
	if o.Grayscale {
		add("grayscale", "true")
	}
	if o.Sharpen {
		add("sharpen", "true")
	}
	if o.Blur != 0 {
		add("blur", strconv.FormatFloat(o.Blur, 'f', -1, 64))
	}
	if o.Invert {
		add("invert", "true")
	}
	if o.Sepia != 0 {
		add("sepia", strconv.Itoa(o.Sepia))
	}
	add("brightness", strconv.Itoa(o.Brightness))
	add("contrast", strconv.Itoa(o.Contrast))
	if o.WatermarkText != "" {
		add("watermark_text", o.WatermarkText)
	}
	position := o.WatermarkPosition
	if position == "" {
		position = PositionBottomRight
	}
	add("watermark_position", string(position))
	add("watermark_opacity", strconv.Itoa(o.WatermarkOpacity))
	return fields
}
