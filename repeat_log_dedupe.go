package main

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	consoleDedupeWindow  = time.Minute
	consoleDedupeMaxKeys = 64
)

// repeatLogDeduper thins out log lines that repeat every refresh while the
// API is down or a bucket group stays misaligned. Only the console pane uses
// it; the file sink keeps every line.
type repeatLogDeduper struct {
	mu      sync.Mutex
	window  time.Duration
	maxKeys int
	now     func() time.Time
	entries map[string]repeatLogEntry
}

type repeatLogEntry struct {
	nextEmit   time.Time
	lastSeen   time.Time
	suppressed uint64
}

func newRepeatLogDeduper(window time.Duration, maxKeys int) *repeatLogDeduper {
	if window <= 0 || maxKeys <= 0 {
		return nil
	}
	return &repeatLogDeduper{
		window:  window,
		maxKeys: maxKeys,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]repeatLogEntry, maxKeys),
	}
}

// Process returns the line to emit and whether to emit it. The first line for
// a key passes; repeats within the window are dropped, and the next one after
// the window carries the number dropped.
func (d *repeatLogDeduper) Process(line string) (string, bool) {
	if d == nil {
		return line, true
	}
	key, ok := repeatLogKey(line)
	if !ok {
		return line, true
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, found := d.entries[key]
	if !found {
		d.evictOneIfNeededLocked()
		d.entries[key] = repeatLogEntry{nextEmit: now.Add(d.window), lastSeen: now}
		return line, true
	}
	entry.lastSeen = now
	if now.Before(entry.nextEmit) {
		entry.suppressed++
		d.entries[key] = entry
		return "", false
	}
	suppressed := entry.suppressed
	entry.suppressed = 0
	entry.nextEmit = now.Add(d.window)
	d.entries[key] = entry
	if suppressed > 0 {
		line = fmt.Sprintf("%s (repeated %d times in %s)", line, suppressed, d.window)
	}
	return line, true
}

func (d *repeatLogDeduper) evictOneIfNeededLocked() {
	if len(d.entries) < d.maxKeys {
		return
	}
	var oldestKey string
	var oldestSeen time.Time
	haveOldest := false
	for key, entry := range d.entries {
		if !haveOldest || entry.lastSeen.Before(oldestSeen) {
			oldestKey = key
			oldestSeen = entry.lastSeen
			haveOldest = true
		}
	}
	if haveOldest {
		delete(d.entries, oldestKey)
	}
}

// repeatLogKey classifies the lines a refresh loop repeats. API errors key on
// the full message so a different failure is shown at once.
func repeatLogKey(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, "Dashboard API error: "); ok {
		return "api:" + rest, true
	}
	fields := strings.Fields(line)
	if len(fields) >= 4 && fields[0] == "Dashboard:" && fields[2] == "buckets" && fields[3] == "misaligned" {
		return "misaligned:" + fields[1], true
	}
	if strings.HasPrefix(line, "Dashboard: manual refresh ignored") {
		return "manual-ignored", true
	}
	return "", false
}
