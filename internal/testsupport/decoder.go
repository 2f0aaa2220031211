package testsupport

import (
	"context"
	"errors"
	"sync"

	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
)

// ErrUndecodable is returned for content registered with Decoder.Reject.
var ErrUndecodable = errors.New("undecodable content")

// Decoder is a fake decode/probe collaborator keyed by content. Unknown
// content decodes to 100×50.
type Decoder struct {
	gates

	alloc *handle.Allocator

	mu       sync.Mutex
	dims     map[string]imaging.Dimensions
	rejected map[string]bool
	started  chan string
}

// NewDecoder returns a fake decoder allocating handles from alloc.
func NewDecoder(alloc *handle.Allocator) *Decoder {
	return &Decoder{
		alloc:    alloc,
		dims:     make(map[string]imaging.Dimensions),
		rejected: make(map[string]bool),
		started:  make(chan string, 64),
	}
}

// SetDimensions fixes the dimensions reported for content.
func (d *Decoder) SetDimensions(content string, dims imaging.Dimensions) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dims[content] = dims
}

// Reject makes decoding content fail.
func (d *Decoder) Reject(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejected[content] = true
}

// Hold blocks Decode and Probe for content until the returned function is called.
func (d *Decoder) Hold(content string) func() {
	return d.hold(content)
}

// Started receives the content of each call as it begins.
func (d *Decoder) Started() <-chan string {
	return d.started
}

// Decode implements batch.Decoder.
func (d *Decoder) Decode(ctx context.Context, content []byte) (imaging.Decoded, error) {
	dims, err := d.Probe(ctx, content)
	if err != nil {
		return imaging.Decoded{}, err
	}
	return imaging.Decoded{
		Handle:     d.alloc.New(content, "image/png"),
		Dimensions: dims,
		Format:     "png",
	}, nil
}

// Probe implements batch.Decoder.
func (d *Decoder) Probe(ctx context.Context, content []byte) (imaging.Dimensions, error) {
	key := string(content)
	signal(d.started, key)
	if err := d.wait(ctx, key); err != nil {
		return imaging.Dimensions{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rejected[key] {
		return imaging.Dimensions{}, ErrUndecodable
	}
	if dims, ok := d.dims[key]; ok {
		return dims, nil
	}
	return imaging.Dimensions{Width: 100, Height: 50}, nil
}
