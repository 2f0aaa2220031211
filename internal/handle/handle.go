// Package handle provides memory-backed display handles for decoded or
// converted image content.
//
// A Handle is released exactly once by its owner. The Allocator counts live
// handles so callers can assert nothing leaked, but it never holds the
// handles themselves.
package handle

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrReleased reports use of a handle after Release.
var ErrReleased = errors.New("handle already released")

// Handle is an opaque reference to binary content usable for display.
type Handle struct {
	id        string
	mediaType string
	size      int64

	mu       sync.Mutex
	data     []byte
	released bool
	alloc    *Allocator
}

// ID returns the handle's blob identifier.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// MediaType returns the declared media type of the content.
func (h *Handle) MediaType() string {
	if h == nil {
		return ""
	}
	return h.mediaType
}

// Size returns the content length in bytes. It stays valid after release.
func (h *Handle) Size() int64 {
	if h == nil {
		return 0
	}
	return h.size
}

// Bytes returns the content. The slice must not be modified or retained past
// the handle's release.
func (h *Handle) Bytes() ([]byte, error) {
	if h == nil {
		return nil, ErrReleased
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrReleased
	}
	return h.data, nil
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release frees the content. A second call returns ErrReleased and changes
// nothing. Releasing a nil handle is a no-op.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return ErrReleased
	}
	h.released = true
	h.data = nil
	h.mu.Unlock()
	if h.alloc != nil {
		h.alloc.outstanding.Add(-1)
	}
	return nil
}

// Allocator creates handles and counts those not yet released.
type Allocator struct {
	outstanding atomic.Int64
	created     atomic.Int64
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// New wraps data in a handle. The allocator takes ownership of data.
func (a *Allocator) New(data []byte, mediaType string) *Handle {
	h := &Handle{
		id:        "blob:" + uuid.NewString(),
		mediaType: mediaType,
		size:      int64(len(data)),
		data:      data,
		alloc:     a,
	}
	if a != nil {
		a.outstanding.Add(1)
		a.created.Add(1)
	}
	return h
}

// Outstanding returns the number of live handles created by a.
func (a *Allocator) Outstanding() int64 {
	if a == nil {
		return 0
	}
	return a.outstanding.Load()
}

// Created returns the total number of handles created by a.
func (a *Allocator) Created() int64 {
	if a == nil {
		return 0
	}
	return a.created.Load()
}
