package testsupport

import (
	"context"
	"testing"
	"time"

	"pixbatch/internal/batch"
	"pixbatch/internal/handle"
	"pixbatch/internal/logging"
)

// Harness bundles a controller with its fakes.
type Harness struct {
	Controller *batch.Controller
	Converter  *Converter
	Decoder    *Decoder
	Alloc      *handle.Allocator
	Recorder   *Recorder
}

// NewHarness starts a controller wired to scripted fakes with deterministic
// ids (item-1, item-2, ...). The controller is closed on cleanup.
func NewHarness(t testing.TB, opts ...batch.Option) *Harness {
	t.Helper()

	alloc := handle.NewAllocator()
	h := &Harness{
		Converter: NewConverter(),
		Decoder:   NewDecoder(alloc),
		Alloc:     alloc,
		Recorder:  &Recorder{},
	}
	base := []batch.Option{
		batch.WithLogger(logging.NewNop()),
		batch.WithIDGenerator(batch.NewSequenceGenerator("item")),
		batch.WithAllocator(alloc),
		batch.WithObserver(h.Recorder),
	}
	h.Controller = batch.New(h.Converter, h.Decoder, append(base, opts...)...)
	t.Cleanup(func() {
		_ = h.Controller.Close()
	})
	return h
}

// Snapshot returns the current batch or fails the test.
func (h *Harness) Snapshot(t testing.TB) batch.Batch {
	t.Helper()

	b, err := h.Controller.Batch(context.Background())
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	return b
}

// Eventually polls cond until it holds or the deadline passes.
func Eventually(t testing.TB, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// Receive waits for a value on ch or fails the test.
func Receive(t testing.TB, ch <-chan string, what string) string {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}
