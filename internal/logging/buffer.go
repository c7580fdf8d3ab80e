package logging

import (
	"encoding/json"
	"sync"
	"time"
)

// Buffer retention bounds. At capacity the oldest batch is evicted in one
// piece so steady logging does not shift the slice on every append.
const (
	bufferCapacity  = 10000
	bufferDropBatch = 1000
)

// Entry is one captured log record.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
}

// Buffer captures emitted log entries in memory. It implements io.Writer
// over zerolog's JSON lines so it can sit next to the normal output writer.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBuffer returns an empty capture buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append records one entry, evicting the oldest batch at capacity.
func (b *Buffer) Append(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) >= bufferCapacity {
		remaining := b.entries[bufferDropBatch:]
		b.entries = append(make([]Entry, 0, len(remaining)+1), remaining...)
	}
	b.entries = append(b.entries, e)
}

// Entries returns a copy of the captured entries, oldest first.
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len reports the number of captured entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Clear drops all captured entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

// Write parses one zerolog JSON line into an Entry. Lines that are not
// zerolog JSON are ignored rather than failing the logger.
func (b *Buffer) Write(p []byte) (int, error) {
	var line struct {
		Level     string `json:"level"`
		Time      string `json:"time"`
		Component string `json:"component"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(p, &line); err != nil {
		return len(p), nil
	}

	ts, err := time.Parse(time.RFC3339, line.Time)
	if err != nil {
		ts = time.Now()
	}

	b.Append(Entry{
		Timestamp: ts,
		Level:     line.Level,
		Component: line.Component,
		Message:   line.Message,
	})
	return len(p), nil
}
