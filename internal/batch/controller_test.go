package batch_test

import (
	"context"
	"errors"
	"testing"

	"pixbatch/internal/batch"
	"pixbatch/internal/handle"
	"pixbatch/internal/logging"
	"pixbatch/internal/testsupport"
	"pixbatch/internal/transform"
)

func TestCloseReleasesHandlesAndRejectsOperations(t *testing.T) {
	h := testsupport.NewHarness(t)
	ctx := context.Background()
	mustAdd(t, h, sources("a", "b")...)
	if _, err := h.Controller.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := h.Controller.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Controller.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if h.Alloc.Outstanding() != 0 {
		t.Fatalf("expected zero outstanding handles after Close, got %d", h.Alloc.Outstanding())
	}

	if _, err := h.Controller.AddItems(ctx, source("c")); !errors.Is(err, batch.ErrClosed) {
		t.Fatalf("AddItems after Close = %v", err)
	}
	if _, err := h.Controller.Run(ctx); !errors.Is(err, batch.ErrClosed) {
		t.Fatalf("Run after Close = %v", err)
	}
	if _, err := h.Controller.Batch(ctx); !errors.Is(err, batch.ErrClosed) {
		t.Fatalf("Batch after Close = %v", err)
	}
	if err := h.Controller.Reset(ctx); !errors.Is(err, batch.ErrClosed) {
		t.Fatalf("Reset after Close = %v", err)
	}
}

func TestCloseWaitsForInFlightWork(t *testing.T) {
	h := testsupport.NewHarness(t)
	srcs := sources("a", "b")
	holdPreview := h.Decoder.Hold(string(srcs[1].Content))
	defer holdPreview()
	mustAdd(t, h, srcs...)
	holdConvert := h.Converter.Hold("a")
	defer holdConvert()

	done := runAsync(h)
	testsupport.Receive(t, h.Converter.Started(), "conversion")

	if err := h.Controller.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	awaitRun(t, done)
	if h.Alloc.Outstanding() != 0 {
		t.Fatalf("expected zero outstanding handles, got %d", h.Alloc.Outstanding())
	}
}

func TestNewFromConfigAppliesDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDefaultFormat(transform.FormatAVIF))
	cfg.Transform.Quality = 70

	alloc := handle.NewAllocator()
	ctrl := batch.NewFromConfig(cfg, testsupport.NewConverter(), testsupport.NewDecoder(alloc), logging.NewNop(), batch.WithAllocator(alloc))
	defer ctrl.Close()

	snap, err := ctrl.Batch(context.Background())
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if snap.TargetFormat != transform.FormatAVIF || snap.Options.Quality != 70 {
		t.Fatalf("config defaults not applied: %s %+v", snap.TargetFormat, snap.Options)
	}
	if ctrl.Allocator() != alloc {
		t.Fatal("expected injected allocator")
	}
}

func TestObserverSeesCommitOrder(t *testing.T) {
	var kinds []batch.EventKind
	h := testsupport.NewHarness(t, batch.WithObserver(batch.ObserverFunc(func(e batch.Event) {
		if e.Kind != batch.EventItemUpdated {
			kinds = append(kinds, e.Kind)
		}
	})))
	ctx := context.Background()
	ids := mustAdd(t, h, source("a"))
	if _, err := h.Controller.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := h.Controller.RemoveItem(ctx, ids[0]); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if err := h.Controller.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := h.Controller.Batch(ctx); err != nil {
		t.Fatalf("Batch: %v", err)
	}

	want := []batch.EventKind{
		batch.EventItemAdded,
		batch.EventProgress, batch.EventProgress, batch.EventProgress,
		batch.EventItemRemoved,
		batch.EventReset,
	}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", kinds, want)
		}
	}
}

func TestRunStateAndCounts(t *testing.T) {
	if batch.Idle().Fraction() != 0 {
		t.Fatal("idle fraction should be 0")
	}
	if got := batch.Running(1, 4).Fraction(); got != 0.25 {
		t.Fatalf("fraction = %v", got)
	}
	b := batch.Batch{Items: []batch.Item{
		{ID: "a", Status: batch.StatusDone},
		{ID: "b", Status: batch.StatusError},
		{ID: "c", Status: batch.StatusPending},
		{ID: "d", Status: batch.StatusConverting},
		{ID: "e", Status: batch.StatusDone},
	}, ActiveID: "c"}
	c := b.Counts()
	if c != (batch.Counts{Total: 5, Pending: 1, Converting: 1, Done: 2, Error: 1}) {
		t.Fatalf("counts = %+v", c)
	}
	if done, total := b.Completed(); done != 2 || total != 5 {
		t.Fatalf("completed = %d/%d", done, total)
	}
	if active, ok := b.Active(); !ok || active.ID != "c" {
		t.Fatalf("active = %+v, %v", active, ok)
	}
	if !batch.StatusError.Eligible() || batch.StatusDone.Eligible() || batch.StatusConverting.Eligible() {
		t.Fatal("only pending and error items are eligible")
	}
}
