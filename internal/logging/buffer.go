package logging

import (
	"sync"
	"time"
)

// LogEntry represents a single log line stored in the ring buffer.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level" example:"info"`
	Module     string         `json:"module" example:"camera"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Filter selects entries from the ring buffer. Zero values match everything.
type Filter struct {
	Module   string
	MinLevel string
	Serial   string
	Limit    int
}

// Match reports whether entry passes the filter, ignoring Limit.
func (f Filter) Match(entry LogEntry) bool {
	if f.Module != "" && entry.Module != f.Module {
		return false
	}
	if f.MinLevel != "" {
		if minLevel := parseLevel(f.MinLevel); minLevel != nil {
			if entryLevel := parseLevel(entry.Level); entryLevel != nil && *entryLevel < *minLevel {
				return false
			}
		}
	}
	if f.Serial != "" {
		if serial, _ := entry.Attributes["serial"].(string); serial != f.Serial {
			return false
		}
	}
	return true
}

// RingBuffer is a thread-safe circular buffer for log entries.
type RingBuffer struct {
	entries []LogEntry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &RingBuffer{
		entries: make([]LogEntry, size),
		size:    size,
	}
}

// Write adds a log entry to the buffer, overwriting the oldest entry if full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.head] = entry
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// ReadAll returns all entries in chronological order.
func (rb *RingBuffer) ReadAll() []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.count == 0 {
		return nil
	}

	result := make([]LogEntry, rb.count)
	if rb.count < rb.size {
		copy(result, rb.entries[:rb.count])
	} else {
		// oldest entry is at head
		n := copy(result, rb.entries[rb.head:])
		copy(result[n:], rb.entries[:rb.head])
	}
	return result
}

// Query returns the newest entries matching f in chronological order.
func (rb *RingBuffer) Query(f Filter) []LogEntry {
	all := rb.ReadAll()
	matched := make([]LogEntry, 0, len(all))
	for _, entry := range all {
		if f.Match(entry) {
			matched = append(matched, entry)
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[len(matched)-f.Limit:]
	}
	return matched
}

// Count returns the number of entries in the buffer.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}
