package testsupport

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// LogRecorder is a slog.Handler that keeps the message of every record at
// any level.
type LogRecorder struct {
	mu       sync.Mutex
	messages []string
}

// Logger returns a logger writing into r.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(r)
}

// Enabled implements slog.Handler.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, record.Message)
	return nil
}

// WithAttrs implements slog.Handler.
func (r *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }

// WithGroup implements slog.Handler.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Logged reports whether a record with msg has been handled.
func (r *LogRecorder) Logged(msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.messages, msg)
}
