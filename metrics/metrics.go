// Package metrics exports refresh cycle telemetry in Prometheus format.
package metrics

import (
	"errors"

	"snortdash/dashboard"
	"snortdash/snapshot"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements dashboard.Observer on top of Prometheus collectors.
type Metrics struct {
	// Latency: full cycle and fetch-only durations
	CycleDuration prometheus.Histogram
	FetchDuration prometheus.Histogram

	// Traffic: cycles by result (ok, fetch_error, parse_error, cancelled)
	Cycles *prometheus.CounterVec

	// Saturation: ticks that found a cycle still running, by action
	TicksSkipped *prometheus.CounterVec
	InFlight     prometheus.Gauge

	// Charts: lifecycle events and live instances per slot
	ChartEvents *prometheus.CounterVec
	ChartsLive  *prometheus.GaugeVec

	// Snapshot: last values rendered into the counters
	Totals        *prometheus.GaugeVec
	SnapshotBytes prometheus.Gauge
	LastSuccess   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "snortdash_cycle_duration_seconds",
			Help:    "Duration of refresh cycles including rendering.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "snortdash_fetch_duration_seconds",
			Help:    "Duration of snapshot fetches.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "snortdash_cycles_total",
			Help: "Refresh cycles by result.",
		}, []string{"result"}),
		TicksSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "snortdash_ticks_overlapped_total",
			Help: "Scheduler ticks that fired while a cycle was running.",
		}, []string{"action"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "snortdash_cycles_in_flight",
			Help: "Refresh cycles currently running.",
		}),
		ChartEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "snortdash_chart_events_total",
			Help: "Chart create and destroy events by slot.",
		}, []string{"slot", "event"}),
		ChartsLive: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snortdash_charts_live",
			Help: "Live chart instances per slot (never above 1).",
		}, []string{"slot"}),
		Totals: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snortdash_snapshot_total",
			Help: "Counter values from the last successful snapshot.",
		}, []string{"counter"}),
		SnapshotBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "snortdash_snapshot_bytes",
			Help: "Body size of the last successful snapshot.",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "snortdash_last_success_timestamp_seconds",
			Help: "Unix time of the last successful cycle.",
		}),
	}
}

func (m *Metrics) CycleStarted(uint64) {
	m.InFlight.Inc()
}

func (m *Metrics) CycleFinished(res dashboard.CycleResult) {
	m.InFlight.Dec()
	m.CycleDuration.Observe(res.Duration.Seconds())
	m.FetchDuration.Observe(res.FetchDuration.Seconds())
	m.Cycles.WithLabelValues(resultLabel(res.Err)).Inc()
	if !res.OK() {
		return
	}
	for _, cv := range res.Counters.Targets() {
		m.Totals.WithLabelValues(cv.Target).Set(float64(cv.Value))
	}
	m.SnapshotBytes.Set(float64(res.Bytes))
	m.LastSuccess.Set(float64(res.Started.Add(res.Duration).Unix()))
}

func (m *Metrics) TickSkipped(queued bool) {
	action := "skipped"
	if queued {
		action = "queued"
	}
	m.TicksSkipped.WithLabelValues(action).Inc()
}

func (m *Metrics) ChartCreated(slot dashboard.Slot) {
	m.ChartEvents.WithLabelValues(string(slot), "create").Inc()
	m.ChartsLive.WithLabelValues(string(slot)).Inc()
}

func (m *Metrics) ChartDestroyed(slot dashboard.Slot) {
	m.ChartEvents.WithLabelValues(string(slot), "destroy").Inc()
	m.ChartsLive.WithLabelValues(string(slot)).Dec()
}

func resultLabel(err error) string {
	var fetchErr *snapshot.FetchError
	var parseErr *snapshot.ParseError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &fetchErr):
		return "fetch_error"
	default:
		return "cancelled"
	}
}
