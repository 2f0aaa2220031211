package services_test

import (
	"context"
	"testing"

	"pixbatch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItemID(ctx, "item-7")
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != "item-7" {
		t.Fatalf("unexpected item id: %v %v", id, ok)
	}
	if run, ok := services.RunIDFromContext(ctx); !ok || run != "run-1" {
		t.Fatalf("unexpected run id: %v %v", run, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithItemID(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected no item id value")
	}
}
