// Package stats tracks refresh cycle outcomes and fetch latency for the status
// line and the optional summary log.
package stats

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"snortdash/dashboard"

	"github.com/dustin/go-humanize"
)

// Tracker observes the refresh loop. It implements dashboard.Observer.
type Tracker struct {
	start atomic.Int64

	cycles       atomic.Uint64
	succeeded    atomic.Uint64
	failed       atomic.Uint64
	skippedTicks atomic.Uint64
	queuedTicks  atomic.Uint64
	inFlight     atomic.Int64

	// per-slot counters live in sync.Map + atomic.Uint64 so chart events from
	// overlapping cycles don't fight over the snapshot mutex
	chartsCreated   sync.Map // dashboard.Slot -> *atomic.Uint64
	chartsDestroyed sync.Map // dashboard.Slot -> *atomic.Uint64

	fetchLatency *LatencyTracker

	mu             sync.Mutex
	lastOK         time.Time
	lastErr        error
	lastErrAt      time.Time
	lastDigest     uint64
	unchangedSince time.Time
	lastBytes      int
	counters       dashboard.Counters
}

// NewTracker creates a new cycle tracker
func NewTracker() *Tracker {
	t := &Tracker{fetchLatency: NewLatencyTracker(256)}
	t.start.Store(time.Now().UnixNano())
	return t
}

func (t *Tracker) CycleStarted(uint64) {
	t.cycles.Add(1)
	t.inFlight.Add(1)
}

// CycleFinished records the outcome. Cycles may finish out of order under the
// allow overlap policy; the last one reported wins, matching what the page
// shows.
func (t *Tracker) CycleFinished(res dashboard.CycleResult) {
	t.inFlight.Add(-1)
	t.fetchLatency.Observe(res.FetchDuration)
	finished := res.Started.Add(res.Duration)
	if !res.OK() {
		t.failed.Add(1)
		t.mu.Lock()
		t.lastErr = res.Err
		t.lastErrAt = finished
		t.mu.Unlock()
		return
	}
	t.succeeded.Add(1)
	t.mu.Lock()
	if t.lastOK.IsZero() || res.Digest != t.lastDigest {
		t.unchangedSince = finished
	}
	t.lastOK = finished
	t.lastDigest = res.Digest
	t.lastBytes = res.Bytes
	t.counters = res.Counters
	t.lastErr = nil
	t.mu.Unlock()
}

func (t *Tracker) TickSkipped(queued bool) {
	if queued {
		t.queuedTicks.Add(1)
		return
	}
	t.skippedTicks.Add(1)
}

func (t *Tracker) ChartCreated(slot dashboard.Slot) {
	incrementCounter(&t.chartsCreated, slot)
}

func (t *Tracker) ChartDestroyed(slot dashboard.Slot) {
	incrementCounter(&t.chartsDestroyed, slot)
}

// Summary is a point-in-time copy of the tracker.
type Summary struct {
	Cycles         uint64
	Succeeded      uint64
	Failed         uint64
	SkippedTicks   uint64
	QueuedTicks    uint64
	InFlight       int64
	LastOK         time.Time
	LastErr        error
	LastErrAt      time.Time
	UnchangedSince time.Time
	LastBytes      int
	Counters       dashboard.Counters
	FetchLatency   LatencySnapshot
	ChartsLive     map[dashboard.Slot]int64
}

func (t *Tracker) Summary() Summary {
	s := Summary{
		Cycles:       t.cycles.Load(),
		Succeeded:    t.succeeded.Load(),
		Failed:       t.failed.Load(),
		SkippedTicks: t.skippedTicks.Load(),
		QueuedTicks:  t.queuedTicks.Load(),
		InFlight:     t.inFlight.Load(),
		FetchLatency: t.fetchLatency.Snapshot(),
		ChartsLive:   make(map[dashboard.Slot]int64, len(dashboard.Slots)),
	}
	for _, slot := range dashboard.Slots {
		s.ChartsLive[slot] = int64(loadCounter(&t.chartsCreated, slot)) - int64(loadCounter(&t.chartsDestroyed, slot))
	}
	t.mu.Lock()
	s.LastOK = t.lastOK
	s.LastErr = t.lastErr
	s.LastErrAt = t.lastErrAt
	s.UnchangedSince = t.unchangedSince
	s.LastBytes = t.lastBytes
	s.Counters = t.counters
	t.mu.Unlock()
	return s
}

// GetUptime returns how long the tracker has been running
func (t *Tracker) GetUptime() time.Duration {
	return time.Since(time.Unix(0, t.start.Load()))
}

// StatusLines returns human-readable status ready for console display.
func (t *Tracker) StatusLines(now time.Time) []string {
	s := t.Summary()
	lines := make([]string, 0, 3)

	if s.LastOK.IsZero() {
		lines = append(lines, "Waiting for first snapshot")
	} else {
		lines = append(lines, fmt.Sprintf("Last refresh %s | data unchanged since %s | %s",
			humanize.RelTime(s.LastOK, now, "ago", "from now"),
			humanize.RelTime(s.UnchangedSince, now, "ago", "from now"),
			humanize.Bytes(uint64(s.LastBytes))))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cycles: ok=%s failed=%s skipped=%s",
		humanize.Comma(int64(s.Succeeded)),
		humanize.Comma(int64(s.Failed)),
		humanize.Comma(int64(s.SkippedTicks+s.QueuedTicks)))
	if s.FetchLatency.N > 0 {
		fmt.Fprintf(&b, " | fetch p50=%s p99=%s",
			s.FetchLatency.P50.Round(time.Millisecond),
			s.FetchLatency.P99.Round(time.Millisecond))
	}
	lines = append(lines, b.String())

	if s.LastErr != nil {
		lines = append(lines, fmt.Sprintf("[red]Last error %s: %v[-]",
			humanize.RelTime(s.LastErrAt, now, "ago", "from now"), s.LastErr))
	}
	return lines
}

func incrementCounter(m *sync.Map, key dashboard.Slot) {
	if value, ok := m.Load(key); ok {
		value.(*atomic.Uint64).Add(1)
		return
	}
	counter := &atomic.Uint64{}
	actual, loaded := m.LoadOrStore(key, counter)
	if loaded {
		actual.(*atomic.Uint64).Add(1)
		return
	}
	counter.Add(1)
}

func loadCounter(m *sync.Map, key dashboard.Slot) uint64 {
	if value, ok := m.Load(key); ok {
		return value.(*atomic.Uint64).Load()
	}
	return 0
}
