package handle_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"pixbatch/internal/handle"
)

func TestReleaseExactlyOnce(t *testing.T) {
	alloc := handle.NewAllocator()
	h := alloc.New([]byte("abc"), "image/png")

	if !strings.HasPrefix(h.ID(), "blob:") {
		t.Fatalf("unexpected id %q", h.ID())
	}
	if alloc.Outstanding() != 1 {
		t.Fatalf("expected 1 outstanding, got %d", alloc.Outstanding())
	}
	data, err := h.Bytes()
	if err != nil || string(data) != "abc" {
		t.Fatalf("Bytes() = %q, %v", data, err)
	}

	if err := h.Release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := h.Release(); !errors.Is(err, handle.ErrReleased) {
		t.Fatalf("second release should report ErrReleased, got %v", err)
	}
	if alloc.Outstanding() != 0 {
		t.Fatalf("expected 0 outstanding, got %d", alloc.Outstanding())
	}
	if _, err := h.Bytes(); !errors.Is(err, handle.ErrReleased) {
		t.Fatalf("read after release should fail, got %v", err)
	}
	if h.Size() != 3 {
		t.Fatalf("size should survive release, got %d", h.Size())
	}
}

func TestNilHandleReleaseIsNoop(t *testing.T) {
	var h *handle.Handle
	if err := h.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
	if !h.Released() {
		t.Fatal("nil handle should report released")
	}
}

func TestConcurrentReleaseDecrementsOnce(t *testing.T) {
	alloc := handle.NewAllocator()
	h := alloc.New(make([]byte, 1024), "image/webp")

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.Release() == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful release, got %d", successes)
	}
	if alloc.Outstanding() != 0 || alloc.Created() != 1 {
		t.Fatalf("unexpected counts outstanding=%d created=%d", alloc.Outstanding(), alloc.Created())
	}
}
