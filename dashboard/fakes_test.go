package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"snortdash/snapshot"
)

// fakeSurface records every create/destroy in order and tracks live charts.
type fakeSurface struct {
	name    string
	mu      sync.Mutex
	live    []*fakeChart
	events  []string
	nextID  int
	failErr error
}

type fakeChart struct {
	surface *fakeSurface
	id      int
	spec    ChartSpec
}

func (s *fakeSurface) NewChart(spec ChartSpec) (Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		s.events = append(s.events, "create-failed")
		return nil, s.failErr
	}
	s.nextID++
	c := &fakeChart{surface: s, id: s.nextID, spec: spec}
	s.live = append(s.live, c)
	s.events = append(s.events, fmt.Sprintf("create:%d", c.id))
	return c, nil
}

func (c *fakeChart) Destroy() {
	s := c.surface
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, live := range s.live {
		if live == c {
			s.live = append(s.live[:i], s.live[i+1:]...)
			break
		}
	}
	s.events = append(s.events, fmt.Sprintf("destroy:%d", c.id))
}

func (s *fakeSurface) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *fakeSurface) eventLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func (s *fakeSurface) current() *fakeChart {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.live) == 0 {
		return nil
	}
	return s.live[len(s.live)-1]
}

// fakeDisplay is a page with a configurable set of targets.
type fakeDisplay struct {
	mu       sync.Mutex
	surfaces map[string]*fakeSurface
	counters map[string]int64
	writes   int
}

func newFakeDisplay(surfaceNames ...string) *fakeDisplay {
	if len(surfaceNames) == 0 {
		surfaceNames = []string{SurfaceHourly, SurfaceWeekly}
	}
	d := &fakeDisplay{
		surfaces: make(map[string]*fakeSurface),
		counters: map[string]int64{
			CounterThreats:   -1,
			CounterRules:     -1,
			CounterWhitelist: -1,
			CounterBlocklist: -1,
		},
	}
	for _, name := range surfaceNames {
		d.surfaces[name] = &fakeSurface{name: name}
	}
	return d
}

func (d *fakeDisplay) Surface(name string) (Surface, bool) {
	s, ok := d.surfaces[name]
	if !ok {
		return nil, false
	}
	return s, true
}

func (d *fakeDisplay) SetCounter(name string, value int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.counters[name]; !ok {
		return false
	}
	d.counters[name] = value
	d.writes++
	return true
}

func (d *fakeDisplay) counter(name string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters[name]
}

func (d *fakeDisplay) counterWrites() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// gatedSource hands out snapshots in call order, each call blocking until its
// gate is released.
type gatedSource struct {
	mu     sync.Mutex
	calls  int
	snaps  []*snapshot.Snapshot
	gates  []chan struct{}
	called chan int
}

func newGatedSource(snaps ...*snapshot.Snapshot) *gatedSource {
	g := &gatedSource{snaps: snaps, called: make(chan int, len(snaps))}
	for range snaps {
		g.gates = append(g.gates, make(chan struct{}))
	}
	return g
}

func (g *gatedSource) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	g.mu.Lock()
	idx := g.calls
	g.calls++
	g.mu.Unlock()
	if idx >= len(g.snaps) {
		return nil, errors.New("no more snapshots")
	}
	g.called <- idx
	select {
	case <-g.gates[idx]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.snaps[idx], nil
}

// recordingObserver counts lifecycle events.
type recordingObserver struct {
	mu        sync.Mutex
	started   int
	finished  []CycleResult
	skipped   int
	queued    int
	created   map[Slot]int
	destroyed map[Slot]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{created: make(map[Slot]int), destroyed: make(map[Slot]int)}
}

func (o *recordingObserver) CycleStarted(uint64) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *recordingObserver) CycleFinished(res CycleResult) {
	o.mu.Lock()
	o.finished = append(o.finished, res)
	o.mu.Unlock()
}

func (o *recordingObserver) TickSkipped(queued bool) {
	o.mu.Lock()
	if queued {
		o.queued++
	} else {
		o.skipped++
	}
	o.mu.Unlock()
}

func (o *recordingObserver) ChartCreated(slot Slot) {
	o.mu.Lock()
	o.created[slot]++
	o.mu.Unlock()
}

func (o *recordingObserver) ChartDestroyed(slot Slot) {
	o.mu.Lock()
	o.destroyed[slot]++
	o.mu.Unlock()
}

func int64p(v int64) *int64 { return &v }

func labelsp(v ...string) *[]string { return &v }
