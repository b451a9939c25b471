package stream

import (
	"strings"
	"sync"
)

// LogBuffer is a bounded FIFO buffer of process output lines. When capacity
// is exceeded the oldest lines are evicted first. One buffer exists per
// session and is discarded with it; logs do not outlive the session.
type LogBuffer struct {
	mu       sync.Mutex
	lines    []string
	capacity int
}

func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = 200
	}
	return &LogBuffer{capacity: capacity}
}

// Append splits raw process output on newlines, drops blank lines and
// appends the rest in order, evicting from the head once full.
func (b *LogBuffer) Append(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.lines = append(b.lines, line)
		if len(b.lines) > b.capacity {
			b.lines = b.lines[len(b.lines)-b.capacity:]
		}
	}
}

// Lines returns a snapshot copy of the buffered lines, oldest first.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
