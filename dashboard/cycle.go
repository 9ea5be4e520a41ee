package dashboard

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"snortdash/snapshot"

	"github.com/dustin/go-humanize"
)

// Source produces one snapshot per call. *snapshot.Fetcher is the production
// implementation.
type Source interface {
	Fetch(ctx context.Context) (*snapshot.Snapshot, error)
}

// Refresher runs one complete cycle per Refresh call.
type Refresher struct {
	source    Source
	display   Display
	slots     *SlotManager
	observer  Observer
	logger    *log.Logger
	logCycles atomic.Bool
	seq       atomic.Uint64
}

// NewRefresher wires a cycle. state may be nil for a fresh DashboardState and
// logger may be nil for the standard logger.
func NewRefresher(source Source, display Display, state *DashboardState, logger *log.Logger, observer Observer) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	if observer == nil {
		observer = Observers(nil)
	}
	return &Refresher{
		source:   source,
		display:  display,
		slots:    NewSlotManager(display, state, observer),
		observer: observer,
		logger:   logger,
	}
}

// SetLogCycles toggles the one-line summary logged after every successful
// cycle.
func (r *Refresher) SetLogCycles(enabled bool) {
	r.logCycles.Store(enabled)
}

// State exposes the chart slots owned by this refresher.
func (r *Refresher) State() *DashboardState {
	return r.slots.State()
}

// Refresh fetches a snapshot and, only if that succeeds, updates the counters
// and re-renders every slot whose bucket group is present.
//
// A fetch or parse failure is logged once and nothing on the display is
// touched, so the previous render stays on screen until a later cycle
// succeeds. Cancellation of ctx is not logged.
func (r *Refresher) Refresh(ctx context.Context) (res CycleResult) {
	res.Seq = r.seq.Add(1)
	res.Started = time.Now()
	r.observer.CycleStarted(res.Seq)
	defer func() {
		res.Duration = time.Since(res.Started)
		r.observer.CycleFinished(res)
	}()

	snap, err := r.source.Fetch(ctx)
	res.FetchDuration = time.Since(res.Started)
	if err != nil {
		res.Err = err
		if ctx.Err() == nil {
			r.logger.Printf("Dashboard API error: %v", err)
		}
		return res
	}
	res.Digest = snap.Digest
	res.Bytes = snap.Bytes

	res.Counters = UpdateCounters(r.display, snap)

	for _, slot := range Slots {
		group, ok := slot.Group(snap)
		if !ok {
			res.Skipped = append(res.Skipped, slot)
			continue
		}
		pres, truncated := group.Presentation()
		if truncated {
			res.Truncated = append(res.Truncated, slot)
			r.logger.Printf("Dashboard: %s buckets misaligned (labels=%d alert=%d drop=%d); truncated to %d",
				slot, len(group.Labels), len(group.Alert), len(group.Drop), len(pres.Labels))
		}
		if err := r.slots.Render(slot, pres.Labels, pres.Alert, pres.Drop); err != nil {
			res.RenderErrors++
			r.logger.Printf("Dashboard: %v", err)
			continue
		}
		res.Rendered = append(res.Rendered, slot)
	}

	if r.logCycles.Load() {
		r.logger.Printf("Refresh #%d: alerts=%s rules=%s whitelist=%s blocklist=%s charts=[%s] (%s)",
			res.Seq,
			humanize.Comma(res.Counters.Alerts),
			humanize.Comma(res.Counters.Rules),
			humanize.Comma(res.Counters.Whitelist),
			humanize.Comma(res.Counters.Blocklist),
			joinSlots(res.Rendered),
			humanize.Bytes(uint64(res.Bytes)))
	}
	return res
}

func joinSlots(slots []Slot) string {
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}
