package supervisor

import (
	"bytes"
	"sync"
)

// Tail is a bounded ring buffer of output lines. It implements io.Writer so
// it can be attached directly to a subprocess's stdout/stderr, keeping only
// the most recent lines for diagnostics.
type Tail struct {
	mu      sync.Mutex
	lines   []string
	max     int
	partial bytes.Buffer
}

// NewTail creates a tail retaining at most max lines.
func NewTail(max int) *Tail {
	if max < 1 {
		max = 1
	}
	return &Tail{max: max}
}

// Write appends process output, splitting it into lines. A trailing partial
// line is buffered until its newline arrives.
func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial.Write(p)
	for {
		data := t.partial.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimRight(data[:idx], "\r"))
		t.partial.Next(idx + 1)
		t.append(line)
	}

	return len(p), nil
}

func (t *Tail) append(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

// Lines returns a copy of the retained lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
