package dashboard

import "time"

// Observer receives lifecycle events from the scheduler, the refresher and the
// slot manager. Implementations must be safe for concurrent use and must not
// call back into the dashboard.
type Observer interface {
	CycleStarted(seq uint64)
	CycleFinished(result CycleResult)
	TickSkipped(queued bool)
	ChartCreated(slot Slot)
	ChartDestroyed(slot Slot)
}

// CycleResult summarizes one fetch-transform-render pass.
type CycleResult struct {
	Seq           uint64
	Started       time.Time
	Duration      time.Duration
	FetchDuration time.Duration
	Err           error

	Digest       uint64
	Bytes        int
	Counters     Counters
	Rendered     []Slot
	Skipped      []Slot
	Truncated    []Slot
	RenderErrors int
}

// OK reports whether the snapshot was fetched and parsed.
func (r CycleResult) OK() bool {
	return r.Err == nil
}

// Observers fans events out to every non-nil member.
type Observers []Observer

func (o Observers) CycleStarted(seq uint64) {
	for _, obs := range o {
		if obs != nil {
			obs.CycleStarted(seq)
		}
	}
}

func (o Observers) CycleFinished(result CycleResult) {
	for _, obs := range o {
		if obs != nil {
			obs.CycleFinished(result)
		}
	}
}

func (o Observers) TickSkipped(queued bool) {
	for _, obs := range o {
		if obs != nil {
			obs.TickSkipped(queued)
		}
	}
}

func (o Observers) ChartCreated(slot Slot) {
	for _, obs := range o {
		if obs != nil {
			obs.ChartCreated(slot)
		}
	}
}

func (o Observers) ChartDestroyed(slot Slot) {
	for _, obs := range o {
		if obs != nil {
			obs.ChartDestroyed(slot)
		}
	}
}
