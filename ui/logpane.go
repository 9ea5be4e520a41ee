package ui

import (
	"bytes"
	"fmt"
	"sync"
	"time"
)

const paneWriterMaxBytes = 64 * 1024

// lineRing keeps the most recent lines of a pane.
type lineRing struct {
	mu      sync.Mutex
	lines   []string
	head    int
	count   int
	evicted uint64
}

func newLineRing(max int) *lineRing {
	if max <= 0 {
		max = 1
	}
	return &lineRing{lines: make([]string, max)}
}

func (r *lineRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == len(r.lines) {
		r.head = (r.head + 1) % len(r.lines)
		r.count--
		r.evicted++
	}
	r.lines[(r.head+r.count)%len(r.lines)] = line
	r.count++
}

// Snapshot returns the retained lines, oldest first.
func (r *lineRing) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.lines[(r.head+i)%len(r.lines)]
	}
	return out
}

func (r *lineRing) Evicted() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evicted
}

// paneWriter adapts log output to a line-oriented pane.
type paneWriter struct {
	append func(line string)
	// buf holds any partial line; it is bounded to avoid unbounded growth when no newline arrives.
	buf          []byte
	mu           sync.Mutex
	droppedBytes uint64
	lastDropLog  time.Time
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.append == nil {
		return len(p), nil
	}
	var logDrop bool
	var dropBytes, totalDropped uint64
	now := time.Now().UTC()

	w.mu.Lock()
	w.buf = append(w.buf, p...)
	if excess := len(w.buf) - paneWriterMaxBytes; excess > 0 {
		w.buf = w.buf[excess:]
		w.droppedBytes += uint64(excess)
		dropBytes = uint64(excess)
		totalDropped = w.droppedBytes
		if w.lastDropLog.IsZero() || now.Sub(w.lastDropLog) >= 30*time.Second {
			w.lastDropLog = now
			logDrop = true
		}
	}
	var lines []string
	data := w.buf
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(data[:idx], "\r")))
		data = data[idx+1:]
	}
	w.buf = append(w.buf[:0], data...)
	w.mu.Unlock()

	for _, line := range lines {
		w.append(line)
	}
	if logDrop {
		// Not via log.Printf: this writer usually sits behind the standard
		// logger, which holds its lock while writing.
		w.append(fmt.Sprintf("UI: system pane dropped %d bytes (total %d) due to missing newline", dropBytes, totalDropped))
	}
	return len(p), nil
}
