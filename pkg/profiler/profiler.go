// Package profiler collects timing information for executed statements.
//
// A Connection with profiling enabled reports one Entry per statement to
// its Profiler. Logger writes entries to slog; Recorder keeps them in
// memory for inspection (REPL .profile, tests).
package profiler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry describes one executed statement.
type Entry struct {
	ID         uuid.UUID
	Connection string
	Database   string
	SQL        string
	Bindings   []any
	Elapsed    time.Duration
	Err        error
}

// Profiler receives an Entry for every profiled statement.
type Profiler interface {
	Record(ctx context.Context, e Entry)
}

// NewEntry returns an Entry with a fresh ID.
func NewEntry(connection, database, sql string, bindings []any, elapsed time.Duration, err error) Entry {
	return Entry{
		ID:         uuid.New(),
		Connection: connection,
		Database:   database,
		SQL:        sql,
		Bindings:   bindings,
		Elapsed:    elapsed,
		Err:        err,
	}
}

// Logger writes entries to a slog.Logger.
type Logger struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogger returns a Profiler logging at level. A nil logger discards.
func NewLogger(logger *slog.Logger, level slog.Level) *Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Logger{logger: logger, level: level}
}

// Record implements Profiler.
func (l *Logger) Record(ctx context.Context, e Entry) {
	attrs := []slog.Attr{
		slog.String("id", e.ID.String()),
		slog.String("connection", e.Connection),
		slog.String("database", e.Database),
		slog.String("sql", e.SQL),
		slog.Int("bindings", len(e.Bindings)),
		slog.Duration("elapsed", e.Elapsed),
	}
	level := l.level
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
		if level < slog.LevelWarn {
			level = slog.LevelWarn
		}
	}
	l.logger.LogAttrs(ctx, level, "statement executed", attrs...)
}

// Recorder keeps entries in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// NewRecorder returns a Recorder holding at most limit entries (the oldest
// are dropped). A limit of zero keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Record implements Profiler.
func (r *Recorder) Record(_ context.Context, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = r.entries[len(r.entries)-r.limit:]
	}
}

// Entries returns a copy of the recorded entries, oldest first.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Total returns the summed elapsed time of the recorded entries.
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, e := range r.entries {
		total += e.Elapsed
	}
	return total
}

// Reset drops all entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Multi fans an entry out to several profilers.
type Multi []Profiler

// Record implements Profiler.
func (m Multi) Record(ctx context.Context, e Entry) {
	for _, p := range m {
		p.Record(ctx, e)
	}
}
