package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pixbatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "convertapi", "convert", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"convertapi", "convert", "failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindOfMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", services.Wrap(services.ErrValidation, "transform", "validate", "bad quality", nil), services.KindValidation},
		{"not found", fmt.Errorf("lookup: %w", services.ErrNotFound), services.KindNotFound},
		{"transient", services.Wrap(services.ErrTransient, "convertapi", "post", "", errors.New("reset")), services.KindTransient},
		{"plain", errors.New("plain"), services.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailureMessagePrefersServiceMessage(t *testing.T) {
	err := &services.ServiceError{
		Marker:    services.ErrExternalTool,
		Component: "convertapi",
		Operation: "convert",
		Message:   "unsupported codec",
		Code:      "CONVERSION_FAILED",
	}
	wrapped := fmt.Errorf("item a: %w", err)
	if got := services.FailureMessage(wrapped); got != "unsupported codec" {
		t.Fatalf("FailureMessage() = %q", got)
	}
	details := services.Details(wrapped)
	if details.Code != "CONVERSION_FAILED" || details.Kind != services.KindExternalTool {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestFailureMessageFallsBackToErrorText(t *testing.T) {
	if got := services.FailureMessage(errors.New("unsupported codec")); got != "unsupported codec" {
		t.Fatalf("FailureMessage() = %q", got)
	}
	if got := services.FailureMessage(nil); got != "" {
		t.Fatalf("FailureMessage(nil) = %q", got)
	}
}
