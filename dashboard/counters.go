package dashboard

import "snortdash/snapshot"

// Counters are the four scalar fields after defaulting.
type Counters struct {
	Alerts    int64
	Rules     int64
	Whitelist int64
	Blocklist int64
}

// CounterValue pairs a display target with its value.
type CounterValue struct {
	Target string
	Value  int64
}

// CountersFrom applies the absent-means-zero rule. Only a missing or null
// field is defaulted; zero and negative values pass through unchanged.
func CountersFrom(s *snapshot.Snapshot) Counters {
	if s == nil {
		return Counters{}
	}
	return Counters{
		Alerts:    snapshot.Value(s.TotalAlerts),
		Rules:     snapshot.Value(s.TotalRules),
		Whitelist: snapshot.Value(s.TotalIPWhitelist),
		Blocklist: snapshot.Value(s.TotalIPBlocklist),
	}
}

// Targets lists the counters in display order.
func (c Counters) Targets() []CounterValue {
	return []CounterValue{
		{Target: CounterThreats, Value: c.Alerts},
		{Target: CounterRules, Value: c.Rules},
		{Target: CounterWhitelist, Value: c.Whitelist},
		{Target: CounterBlocklist, Value: c.Blocklist},
	}
}

// UpdateCounters writes all four counters to the display. Targets the display
// does not have are skipped.
func UpdateCounters(d Display, s *snapshot.Snapshot) Counters {
	counters := CountersFrom(s)
	if d == nil {
		return counters
	}
	for _, cv := range counters.Targets() {
		d.SetCounter(cv.Target, cv.Value)
	}
	return counters
}
