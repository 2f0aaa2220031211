package transform

import (
	"fmt"
	"path/filepath"
	"strings"

	"pixbatch/internal/services"
	"pixbatch/internal/textutil"
)

// Format names a conversion target.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
	FormatHEIC Format = "heic"
	FormatTIFF Format = "tiff"
	FormatGIF  Format = "gif"
	FormatJXL  Format = "jxl"
)

// DefaultFormat is the target used when nothing else is configured.
const DefaultFormat = FormatWebP

// FormatInfo is a catalog entry shown to users picking a target.
type FormatInfo struct {
	Format    Format
	Label     string
	Hint      string
	MediaType string
}

var catalog = []FormatInfo{
	{FormatJPEG, "JPEG", "Universal", "image/jpeg"},
	{FormatPNG, "PNG", "Lossless", "image/png"},
	{FormatWebP, "WebP", "Smallest", "image/webp"},
	{FormatAVIF, "AVIF", "Modern", "image/avif"},
	{FormatHEIC, "HEIC", "Apple", "image/heic"},
	{FormatTIFF, "TIFF", "Print", "image/tiff"},
	{FormatGIF, "GIF", "Animated", "image/gif"},
	{FormatJXL, "JXL", "Next-gen", "image/jxl"},
}

var aliases = map[string]Format{
	"jpg": FormatJPEG,
	"tif": FormatTIFF,
}

// Catalog returns the supported formats in display order.
func Catalog() []FormatInfo {
	out := make([]FormatInfo, len(catalog))
	copy(out, catalog)
	return out
}

// ParseFormat resolves a user-supplied format name, accepting common aliases.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, ".")
	if alias, ok := aliases[normalized]; ok {
		return alias, nil
	}
	for _, info := range catalog {
		if string(info.Format) == normalized {
			return info.Format, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "transform", "parse format", fmt.Sprintf("unsupported format %q", value), nil)
}

// Info returns the catalog entry for f.
func (f Format) Info() (FormatInfo, bool) {
	for _, info := range catalog {
		if info.Format == f {
			return info, true
		}
	}
	return FormatInfo{}, false
}

// Valid reports whether f is in the catalog.
func (f Format) Valid() bool {
	_, ok := f.Info()
	return ok
}

func (f Format) String() string { return string(f) }

// MediaType returns the MIME type produced for f, or application/octet-stream.
func (f Format) MediaType() string {
	if info, ok := f.Info(); ok {
		return info.MediaType
	}
	return "application/octet-stream"
}

// DownloadName derives the output file name for a converted source: the
// source's base name, made filesystem-safe, with its extension replaced by
// the target format.
func DownloadName(sourceName string, format Format) string {
	base := filepath.Base(strings.TrimSpace(sourceName))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	base = textutil.SanitizeFileName(base)
	if base == "" {
		base = "image"
	}
	return base + "." + string(format)
}
