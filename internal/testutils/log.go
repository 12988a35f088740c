package testutils

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ExpectedRecord describes a log record a test wants to find.
// Attrs only lists the attributes to check, compared by their string value.
type ExpectedRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Compare asserts that have matches the expected record.
func (want ExpectedRecord) Compare(t *testing.T, have slog.Record) {
	t.Helper()

	assert.Equal(t, want.Level, have.Level, "Expected Level did not match real Level")
	if want.Message != "" {
		assert.Contains(t, have.Message, want.Message, "Real Message does not contain Expected")
	}

	got := make(map[string]string)
	have.Attrs(func(a slog.Attr) bool {
		got[a.Key] = fmt.Sprint(a.Value.Any())
		return true
	})
	for k, v := range want.Attrs {
		assert.Equal(t, v, got[k], "Attribute %q did not match", k)
	}
}

// LogRecorder is a slog.Handler keeping every record it handles.
type LogRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewLogger returns a logger writing to a fresh recorder at debug level.
func NewLogger() (*slog.Logger, *LogRecorder) {
	r := &LogRecorder{}
	return slog.New(r), r
}

// Enabled implements Handler.Enabled.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements Handler.Handle.
func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record.Clone())
	return nil
}

// WithAttrs implements Handler.WithAttrs. Records share the parent storage.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{parent: r, attrs: attrs}
}

// WithGroup implements Handler.WithGroup. Groups are ignored.
func (r *LogRecorder) WithGroup(string) slog.Handler {
	return r
}

// Find returns the first record with the given message.
func (r *LogRecorder) Find(message string) (slog.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.Message == message {
			return rec, true
		}
	}
	return slog.Record{}, false
}

// Len returns the number of records handled so far.
func (r *LogRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type withAttrs struct {
	parent *LogRecorder
	attrs  []slog.Attr
}

func (w *withAttrs) Enabled(ctx context.Context, l slog.Level) bool { return w.parent.Enabled(ctx, l) }

func (w *withAttrs) Handle(ctx context.Context, record slog.Record) error {
	record = record.Clone()
	record.AddAttrs(w.attrs...)
	return w.parent.Handle(ctx, record)
}

func (w *withAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{parent: w.parent, attrs: append(append([]slog.Attr{}, w.attrs...), attrs...)}
}

func (w *withAttrs) WithGroup(string) slog.Handler { return w }
