package imaging_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
	"pixbatch/internal/services"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeReturnsHandleAndDimensions(t *testing.T) {
	alloc := handle.NewAllocator()
	dec := imaging.NewDecoder(alloc, 0)
	content := encodePNG(t, 40, 30)

	decoded, err := dec.Decode(context.Background(), content)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if decoded.Dimensions != (imaging.Dimensions{Width: 40, Height: 30}) {
		t.Fatalf("unexpected dimensions %v", decoded.Dimensions)
	}
	if decoded.Handle.MediaType() != "image/png" || decoded.Format != "png" {
		t.Fatalf("unexpected media type %q format %q", decoded.Handle.MediaType(), decoded.Format)
	}
	if alloc.Outstanding() != 1 {
		t.Fatalf("expected one live handle, got %d", alloc.Outstanding())
	}
	if err := decoded.Handle.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	alloc := handle.NewAllocator()
	dec := imaging.NewDecoder(alloc, 0)
	_, err := dec.Decode(context.Background(), []byte("definitely not an image"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if alloc.Outstanding() != 0 {
		t.Fatalf("failed decode must not allocate, got %d", alloc.Outstanding())
	}
}

func TestProbeEnforcesPixelLimit(t *testing.T) {
	dec := imaging.NewDecoder(nil, 100)
	_, err := dec.Probe(context.Background(), encodePNG(t, 20, 20))
	if !errors.Is(err, imaging.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestProbeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := imaging.NewDecoder(nil, 0).Probe(ctx, encodePNG(t, 2, 2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSniff(t *testing.T) {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	var gifBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White}), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	tests := []struct {
		name    string
		content []byte
		want    string
		ok      bool
	}{
		{"png", encodePNG(t, 1, 1), "image/png", true},
		{"bmp", bmpBuf.Bytes(), "image/bmp", true},
		{"text starting with BM", []byte("BM notes about cars\n"), "", false},
		{"text starting with MM", []byte("MM\x00* is not a tiff header"), "", false},
		{"jpeg", jpg.Bytes(), "image/jpeg", true},
		{"gif", gifBuf.Bytes(), "image/gif", true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp", true},
		{"avif", []byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00"), "image/avif", true},
		{"heic", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00"), "image/heic", true},
		{"tiff", []byte("II*\x00\x08\x00\x00\x00\x00\x00"), "image/tiff", true},
		{"tiff big endian", []byte("MM\x00*\x00\x00\x00\x08\x00\x00"), "image/tiff", true},
		{"tiff bad offset", []byte("II*\x00\x00\x00\x00\x00\x00\x00"), "", false},
		{"tiff offset past end", []byte("II*\x00\x08\x00\x00\x00"), "", false},
		{"text", []byte("hello, world"), "", false},
		{"short", []byte{0x01}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := imaging.Sniff(tt.content)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Sniff = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
