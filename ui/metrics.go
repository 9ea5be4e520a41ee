package ui

import (
	"sync/atomic"
	"time"

	"snortdash/stats"
)

// Metrics tracks UI-level counters and latency distributions.
type Metrics struct {
	renderLatency   *stats.LatencyTracker
	chartMounts     atomic.Uint64
	chartUnmounts   atomic.Uint64
	manualRefreshes atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		renderLatency: stats.NewLatencyTracker(512),
	}
}

// ObserveRender records the delay between queueing a frame and drawing it.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderLatency.Observe(d)
}

func (m *Metrics) ChartMounted() {
	if m == nil {
		return
	}
	m.chartMounts.Add(1)
}

func (m *Metrics) ChartUnmounted() {
	if m == nil {
		return
	}
	m.chartUnmounts.Add(1)
}

func (m *Metrics) ManualRefresh() {
	if m == nil {
		return
	}
	m.manualRefreshes.Add(1)
}

func (m *Metrics) RenderSnapshot() stats.LatencySnapshot {
	if m == nil {
		return stats.LatencySnapshot{}
	}
	return m.renderLatency.Snapshot()
}

// ChartsMounted returns mounts minus unmounts across all surfaces.
func (m *Metrics) ChartsMounted() int64 {
	if m == nil {
		return 0
	}
	return int64(m.chartMounts.Load()) - int64(m.chartUnmounts.Load())
}

func (m *Metrics) ManualRefreshes() uint64 {
	if m == nil {
		return 0
	}
	return m.manualRefreshes.Load()
}
