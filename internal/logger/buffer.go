package logger

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// SourceKey is the attribute used to tag log records with the component that
// produced them. It is reported as the entry source by the log buffer.
const SourceKey = "component"

// DefaultSource is reported for records carrying no component attribute.
const DefaultSource = "server"

// Entry is a single log record kept for the debug log endpoint.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
}

// Buffer is a fixed-capacity ring of log entries. When full, the oldest
// entry is overwritten.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewBuffer creates a buffer holding at most capacity entries.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{entries: make([]Entry, capacity)}
}

// Add appends an entry, evicting the oldest one if the buffer is full.
func (b *Buffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// Entries returns a copy of the buffered entries, oldest first.
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		out := make([]Entry, b.next)
		copy(out, b.entries[:b.next])
		return out
	}

	out := make([]Entry, 0, len(b.entries))
	out = append(out, b.entries[b.next:]...)
	out = append(out, b.entries[:b.next]...)
	return out
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

// Handler returns a slog.Handler writing records at or above level into the buffer.
func (b *Buffer) Handler(level slog.Leveler) slog.Handler {
	return &bufferHandler{buf: b, level: level, source: DefaultSource}
}

type bufferHandler struct {
	buf    *Buffer
	level  slog.Leveler
	source string
}

func (h *bufferHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *bufferHandler) Handle(_ context.Context, r slog.Record) error {
	source := h.source
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == SourceKey {
			source = a.Value.String()
			return false
		}
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	h.buf.Add(Entry{
		Timestamp: ts.UTC(),
		Level:     strings.ToLower(r.Level.String()),
		Message:   r.Message,
		Source:    source,
	})
	return nil
}

func (h *bufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	for _, a := range attrs {
		if a.Key == SourceKey {
			clone.source = a.Value.String()
		}
	}
	return &clone
}

// Groups only affect attribute keys, which the buffer does not keep.
func (h *bufferHandler) WithGroup(_ string) slog.Handler {
	return h
}
