package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

type (
	// LogRecorder is a slog.Handler that keeps every record it handles, in order.
	LogRecorder struct {
		mu      *sync.Mutex
		records *[]slog.Record
		attrs   []slog.Attr
	}

	testWriter struct {
		t testing.TB
	}
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// NewRecordingLogger returns a debug level logger together with the recorder
// capturing its output.
//
// Example:
//
//	logger, rec := testutil.NewRecordingLogger()
//	logger.Info("Processing block \"Block 1\".")
//	rec.Messages() // []string{"Processing block \"Block 1\"."}
func NewRecordingLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{mu: &sync.Mutex{}, records: &[]slog.Record{}}
	return slog.New(rec), rec
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	rec = rec.Clone()
	rec.AddAttrs(r.attrs...)

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.records = append(*r.records, rec)
	return nil
}

func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{
		mu:      r.mu,
		records: r.records,
		attrs:   append(append([]slog.Attr{}, r.attrs...), attrs...),
	}
}

// WithGroup is a no-op, records are kept flat.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of the handled records.
func (r *LogRecorder) Records() []slog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]slog.Record{}, *r.records...)
}

// Messages returns the messages of the handled records.
func (r *LogRecorder) Messages() []string {
	records := r.Records()

	msgs := make([]string, len(records))
	for i, rec := range records {
		msgs[i] = rec.Message
	}
	return msgs
}

// MessagesAt returns the messages of the records logged at level.
func (r *LogRecorder) MessagesAt(level slog.Level) []string {
	var msgs []string
	for _, rec := range r.Records() {
		if rec.Level == level {
			msgs = append(msgs, rec.Message)
		}
	}
	return msgs
}

// Attr returns the value of the first attribute named key on the record.
func Attr(rec slog.Record, key string) (slog.Value, bool) {
	var (
		val   slog.Value
		found bool
	)

	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val, found = a.Value, true
			return false
		}
		return true
	})

	return val, found
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
