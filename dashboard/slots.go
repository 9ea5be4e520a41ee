package dashboard

import (
	"fmt"
	"sync"

	"snortdash/snapshot"
)

// Slot names a visual location that holds at most one live chart.
type Slot string

const (
	SlotHourly Slot = "hourly"
	SlotWeekly Slot = "weekly"
)

// Slots lists every slot in render order.
var Slots = []Slot{SlotHourly, SlotWeekly}

// SurfaceName maps the slot to the drawing surface it renders into.
func (s Slot) SurfaceName() string {
	switch s {
	case SlotHourly:
		return SurfaceHourly
	case SlotWeekly:
		return SurfaceWeekly
	default:
		return string(s) + "Chart"
	}
}

// Group extracts this slot's bucket group from a snapshot.
func (s Slot) Group(snap *snapshot.Snapshot) (BucketGroup, bool) {
	switch s {
	case SlotHourly:
		return HourlyGroup(snap)
	case SlotWeekly:
		return WeeklyGroup(snap)
	default:
		return BucketGroup{}, false
	}
}

type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotRendered
)

func (s SlotState) String() string {
	if s == SlotRendered {
		return "rendered"
	}
	return "empty"
}

// ChartSlot owns the live chart handle for one slot.
type ChartSlot struct {
	slot      Slot
	mu        sync.Mutex
	live      Chart
	created   uint64
	destroyed uint64
}

func (c *ChartSlot) State() SlotState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil {
		return SlotEmpty
	}
	return SlotRendered
}

// Live returns the current chart handle, or nil when the slot is empty.
func (c *ChartSlot) Live() Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Counts returns how many charts this slot has created and destroyed. The
// difference is the number of live instances and is never more than one.
func (c *ChartSlot) Counts() (created, destroyed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created, c.destroyed
}

// DashboardState holds the chart slots for one page. It replaces any notion of
// package-level chart handles: whoever owns the state owns the charts.
type DashboardState struct {
	slots map[Slot]*ChartSlot
}

func NewDashboardState() *DashboardState {
	st := &DashboardState{slots: make(map[Slot]*ChartSlot, len(Slots))}
	for _, slot := range Slots {
		st.slots[slot] = &ChartSlot{slot: slot}
	}
	return st
}

func (s *DashboardState) Slot(slot Slot) (*ChartSlot, bool) {
	if s == nil {
		return nil, false
	}
	cs, ok := s.slots[slot]
	return cs, ok
}

// Clear destroys every live chart, leaving all slots empty.
func (s *DashboardState) Clear() {
	if s == nil {
		return
	}
	for _, slot := range Slots {
		cs := s.slots[slot]
		cs.mu.Lock()
		if cs.live != nil {
			cs.live.Destroy()
			cs.live = nil
			cs.destroyed++
		}
		cs.mu.Unlock()
	}
}

// SlotManager renders charts into slots with destroy-then-create semantics.
type SlotManager struct {
	display  Display
	state    *DashboardState
	observer Observer
}

func NewSlotManager(display Display, state *DashboardState, observer Observer) *SlotManager {
	if state == nil {
		state = NewDashboardState()
	}
	if observer == nil {
		observer = Observers(nil)
	}
	return &SlotManager{display: display, state: state, observer: observer}
}

func (m *SlotManager) State() *DashboardState {
	return m.state
}

// Render replaces the chart held by slot with a new one built from the given
// presentation-order series.
//
// A missing surface is not an error: the page simply has no such slot, and
// nothing is touched. Otherwise the live chart (if any) is destroyed before the
// new one is created, both under the slot lock, so the slot never holds two
// instances. If creation fails the slot is left empty.
func (m *SlotManager) Render(slot Slot, labels []string, alert, drop []int64) error {
	cs, ok := m.state.Slot(slot)
	if !ok {
		return fmt.Errorf("unknown slot %q", slot)
	}
	if m.display == nil {
		return nil
	}
	surface, ok := m.display.Surface(slot.SurfaceName())
	if !ok || surface == nil {
		return nil
	}
	spec := NewBarChartSpec(labels, alert, drop)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.live != nil {
		cs.live.Destroy()
		cs.live = nil
		cs.destroyed++
		m.observer.ChartDestroyed(slot)
	}
	chart, err := surface.NewChart(spec)
	if err != nil {
		return fmt.Errorf("render %s chart: %w", slot, err)
	}
	if chart == nil {
		return fmt.Errorf("render %s chart: surface %s returned no chart", slot, slot.SurfaceName())
	}
	cs.live = chart
	cs.created++
	m.observer.ChartCreated(slot)
	return nil
}
