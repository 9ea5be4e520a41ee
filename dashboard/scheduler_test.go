package dashboard

import (
	"context"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"
	"time"

	"snortdash/snapshot"
)

// blockingCycler holds every cycle until release is signalled.
type blockingCycler struct {
	mu      sync.Mutex
	calls   int
	started chan int
	release chan struct{}
}

func newBlockingCycler() *blockingCycler {
	return &blockingCycler{started: make(chan int, 16), release: make(chan struct{}, 16)}
}

func (c *blockingCycler) Refresh(ctx context.Context) CycleResult {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()
	c.started <- n
	select {
	case <-c.release:
	case <-ctx.Done():
	}
	return CycleResult{Seq: uint64(n)}
}

func (c *blockingCycler) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitStarted(t *testing.T, c *blockingCycler) int {
	t.Helper()
	select {
	case n := <-c.started:
		return n
	case <-time.After(3 * time.Second):
		t.Fatalf("cycle did not start")
		return 0
	}
}

func TestParseOverlapPolicy(t *testing.T) {
	cases := map[string]OverlapPolicy{
		"":       OverlapSkip,
		"skip":   OverlapSkip,
		" Queue": OverlapQueue,
		"ALLOW":  OverlapAllow,
	}
	for raw, want := range cases {
		got, err := ParseOverlapPolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseOverlapPolicy(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseOverlapPolicy("parallel"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestNewSchedulerDefaults(t *testing.T) {
	s := NewScheduler(newBlockingCycler(), 0, "", nil)
	if s.Interval() != 5*time.Second {
		t.Fatalf("default interval = %s", s.Interval())
	}
	if s.Policy() != OverlapSkip {
		t.Fatalf("default policy = %s", s.Policy())
	}
}

func TestSchedulerRunsFirstCycleImmediately(t *testing.T) {
	c := newBlockingCycler()
	s := NewScheduler(c, time.Hour, OverlapSkip, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitStarted(t, c)
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if s.Running() != 0 {
		t.Fatalf("expected no cycles in flight after Run returned")
	}
}

func TestSchedulerTicksOnInterval(t *testing.T) {
	c := newBlockingCycler()
	s := NewScheduler(c, 10*time.Millisecond, OverlapSkip, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	for i := 0; i < 3; i++ {
		waitStarted(t, c)
		c.release <- struct{}{}
	}
}

func TestSchedulerSkipPolicyDropsOverlappingTicks(t *testing.T) {
	c := newBlockingCycler()
	obs := newRecordingObserver()
	s := NewScheduler(c, time.Hour, OverlapSkip, obs)
	ctx := testContext(t)

	if !s.Tick(ctx) {
		t.Fatalf("first tick should start a cycle")
	}
	waitStarted(t, c)
	if s.Tick(ctx) || s.Tick(ctx) {
		t.Fatalf("overlapping ticks should be skipped")
	}
	c.release <- struct{}{}
	waitFor(t, "cycle to finish", func() bool { return s.Running() == 0 })

	if c.callCount() != 1 {
		t.Fatalf("expected 1 cycle, got %d", c.callCount())
	}
	obs.mu.Lock()
	skipped, queued := obs.skipped, obs.queued
	obs.mu.Unlock()
	if skipped != 2 || queued != 0 {
		t.Fatalf("skipped=%d queued=%d", skipped, queued)
	}
}

func TestSchedulerQueuePolicyCoalescesTicks(t *testing.T) {
	c := newBlockingCycler()
	obs := newRecordingObserver()
	s := NewScheduler(c, time.Hour, OverlapQueue, obs)
	ctx := testContext(t)

	s.Tick(ctx)
	waitStarted(t, c)
	s.Tick(ctx)
	s.Tick(ctx)
	s.Tick(ctx)
	c.release <- struct{}{}

	if n := waitStarted(t, c); n != 2 {
		t.Fatalf("expected queued cycle #2, got #%d", n)
	}
	if s.Running() != 1 {
		t.Fatalf("queued cycle must run serially, running=%d", s.Running())
	}
	c.release <- struct{}{}
	waitFor(t, "queued cycle to finish", func() bool { return s.Running() == 0 })

	if c.callCount() != 2 {
		t.Fatalf("expected 3 overlapping ticks to coalesce into 1 extra cycle, got %d cycles", c.callCount())
	}
	obs.mu.Lock()
	queued := obs.queued
	obs.mu.Unlock()
	if queued != 3 {
		t.Fatalf("expected 3 queued ticks, got %d", queued)
	}
}

func TestSchedulerTickAfterCancelIsIgnored(t *testing.T) {
	c := newBlockingCycler()
	s := NewScheduler(c, time.Hour, OverlapAllow, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if s.Tick(ctx) {
		t.Fatalf("tick on a cancelled context must not start a cycle")
	}
}

// With OverlapAllow two cycles can be in flight. The one whose render lands
// last wins even if it fetched older data, but the slot still holds exactly
// one chart.
func TestSchedulerAllowPolicyLastRenderWins(t *testing.T) {
	older := &snapshot.Snapshot{HourLabels: labelsp("00"), HourAlert: []int64{1}, HourDrop: []int64{0}}
	newer := &snapshot.Snapshot{HourLabels: labelsp("00"), HourAlert: []int64{2}, HourDrop: []int64{0}}
	src := newGatedSource(older, newer)
	display := newFakeDisplay()
	r := NewRefresher(src, display, nil, log.New(io.Discard, "", 0), nil)
	s := NewScheduler(r, time.Hour, OverlapAllow, nil)
	ctx := testContext(t)

	if !s.Tick(ctx) {
		t.Fatalf("first tick should start")
	}
	if idx := <-src.called; idx != 0 {
		t.Fatalf("expected first fetch, got %d", idx)
	}
	if !s.Tick(ctx) {
		t.Fatalf("allow policy should start an overlapping cycle")
	}
	if idx := <-src.called; idx != 1 {
		t.Fatalf("expected second fetch, got %d", idx)
	}
	if s.Running() != 2 {
		t.Fatalf("expected 2 cycles in flight, got %d", s.Running())
	}

	close(src.gates[1])
	waitFor(t, "newer cycle", func() bool { return s.Running() == 1 })
	close(src.gates[0])
	waitFor(t, "older cycle", func() bool { return s.Running() == 0 })

	hourly := display.surfaces[SurfaceHourly]
	if hourly.liveCount() != 1 {
		t.Fatalf("expected exactly one live chart, got %d", hourly.liveCount())
	}
	if got := hourly.current().spec.Series[0].Values; !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("expected stale snapshot to win the race, got %v", got)
	}
}
