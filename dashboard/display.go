// Package dashboard runs the refresh-and-render cycle: fetch a snapshot, write
// the four counters, reorder the bucket groups and replace the chart held by
// each slot.
//
// Rendering backends plug in through Display, Surface and Chart. The terminal
// page in package ui and the ANSI console in package main both implement them.
package dashboard

// Chart is a live rendered chart. Destroy releases it from its surface.
type Chart interface {
	Destroy()
}

// Surface is a named drawing target that can host charts.
type Surface interface {
	NewChart(spec ChartSpec) (Chart, error)
}

// Display resolves render targets by name. A false return means the page does
// not include that target; callers skip it without error.
type Display interface {
	Surface(name string) (Surface, bool)
	SetCounter(name string, value int64) bool
}

// Surface and counter target names.
const (
	SurfaceHourly = "hourlyChart"
	SurfaceWeekly = "weeklyChart"

	CounterThreats   = "threats-count"
	CounterRules     = "rules-count"
	CounterWhitelist = "whitelist-count"
	CounterBlocklist = "blocklist-count"
)
