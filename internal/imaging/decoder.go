package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pixbatch/internal/handle"
	"pixbatch/internal/services"
)

// DefaultMaxPixels bounds decoded image area when no limit is configured.
const DefaultMaxPixels = 100_000_000

// ErrTooLarge reports content whose declared dimensions exceed MaxPixels.
var ErrTooLarge = errors.New("image exceeds pixel limit")

// Dimensions is a natural pixel size.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Pixels returns the image area.
func (d Dimensions) Pixels() int64 {
	return int64(d.Width) * int64(d.Height)
}

// IsZero reports whether the dimensions are unset.
func (d Dimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}

func (d Dimensions) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d×%d", d.Width, d.Height)
}

// Decoded is the result of decoding content for display.
type Decoded struct {
	Handle     *handle.Handle
	Dimensions Dimensions
	Format     string
}

// Decoder decodes content with the registered image codecs.
type Decoder struct {
	alloc     *handle.Allocator
	maxPixels int64
}

// NewDecoder returns a decoder that allocates display handles from alloc.
// A non-positive maxPixels selects DefaultMaxPixels.
func NewDecoder(alloc *handle.Allocator, maxPixels int64) *Decoder {
	if alloc == nil {
		alloc = handle.NewAllocator()
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Decoder{alloc: alloc, maxPixels: maxPixels}
}

// Probe returns the natural dimensions declared by the content header.
func (d *Decoder) Probe(ctx context.Context, content []byte) (Dimensions, error) {
	dims, _, err := d.probe(ctx, content)
	return dims, err
}

// Decode fully decodes content to validate it and wraps the content in a
// display handle. The caller owns the returned handle.
func (d *Decoder) Decode(ctx context.Context, content []byte) (Decoded, error) {
	dims, format, err := d.probe(ctx, content)
	if err != nil {
		return Decoded{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return Decoded{}, services.Wrap(services.ErrValidation, "imaging", "decode", "image data is corrupt", err)
	}
	if err := ctx.Err(); err != nil {
		return Decoded{}, err
	}
	if b := img.Bounds(); b.Dx() > 0 && b.Dy() > 0 {
		dims = Dimensions{Width: b.Dx(), Height: b.Dy()}
	}
	mediaType, ok := Sniff(content)
	if !ok {
		mediaType = "image/" + format
	}
	return Decoded{
		Handle:     d.alloc.New(content, mediaType),
		Dimensions: dims,
		Format:     format,
	}, nil
}

func (d *Decoder) probe(ctx context.Context, content []byte) (Dimensions, string, error) {
	if err := ctx.Err(); err != nil {
		return Dimensions{}, "", err
	}
	if len(content) == 0 {
		return Dimensions{}, "", services.Wrap(services.ErrValidation, "imaging", "probe", "empty content", nil)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return Dimensions{}, "", services.Wrap(services.ErrValidation, "imaging", "probe", "unsupported or unreadable image", err)
	}
	dims := Dimensions{Width: cfg.Width, Height: cfg.Height}
	if dims.Width <= 0 || dims.Height <= 0 {
		return Dimensions{}, "", services.Wrap(services.ErrValidation, "imaging", "probe", "image has no pixels", nil)
	}
	if dims.Pixels() > d.maxPixels {
		return Dimensions{}, "", services.Wrap(services.ErrValidation, "imaging", "probe",
			fmt.Sprintf("%s exceeds %d pixels", dims, d.maxPixels), ErrTooLarge)
	}
	return dims, format, nil
}
