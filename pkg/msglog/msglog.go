// Package msglog keeps the most recent text messages shown on the display.
// It is a bounded FIFO: admitting past capacity evicts the oldest entry.
package msglog

import "iter"

// DefaultCapacity is the number of messages retained on screen.
const DefaultCapacity = 5

// Log is a bounded, insertion-ordered message log.
// It is owned by a single handler and is not safe for concurrent mutation.
type Log struct {
	entries []string
	max     int
}

// New creates an empty log holding at most capacity entries.
// A capacity below 1 falls back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries: make([]string, 0, capacity+1),
		max:     capacity,
	}
}

// Admit appends message and evicts the oldest entry if over capacity.
func (l *Log) Admit(message string) {
	l.entries = append(l.entries, message)
	if len(l.entries) > l.max {
		// Shift down instead of reslicing so the backing array never grows.
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = ""
		l.entries = l.entries[:len(l.entries)-1]
	}
}

// Entries returns a snapshot of the current entries, oldest first.
// The snapshot is taken now; ranging over it any number of times yields the
// same sequence regardless of later admits.
func (l *Log) Entries() iter.Seq[string] {
	snap := l.Snapshot()
	return func(yield func(string) bool) {
		for _, e := range snap {
			if !yield(e) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the current entries, oldest first.
func (l *Log) Snapshot() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int { return len(l.entries) }

// Cap returns the maximum number of retained entries.
func (l *Log) Cap() int { return l.max }
