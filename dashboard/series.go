package dashboard

import "snortdash/snapshot"

// Reverse returns a new slice with the elements of s in reverse order. The
// input is never modified. Reverse of nil is nil.
func Reverse[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// BucketGroup is one time granularity: index-aligned labels with alert and
// drop counts.
type BucketGroup struct {
	Labels []string
	Alert  []int64
	Drop   []int64
}

// HourlyGroup extracts the hourly buckets. ok is false when the snapshot has no
// hourly labels, in which case the hourly slot must be left untouched.
func HourlyGroup(s *snapshot.Snapshot) (BucketGroup, bool) {
	if s == nil {
		return BucketGroup{}, false
	}
	labels, ok := snapshot.Labels(s.HourLabels)
	if !ok {
		return BucketGroup{}, false
	}
	return BucketGroup{Labels: labels, Alert: s.HourAlert, Drop: s.HourDrop}, true
}

// WeeklyGroup extracts the weekly buckets, see HourlyGroup.
func WeeklyGroup(s *snapshot.Snapshot) (BucketGroup, bool) {
	if s == nil {
		return BucketGroup{}, false
	}
	labels, ok := snapshot.Labels(s.WeekLabels)
	if !ok {
		return BucketGroup{}, false
	}
	return BucketGroup{Labels: labels, Alert: s.WeekAlert, Drop: s.WeekDrop}, true
}

// Align makes the three arrays the same length. A value series that is nil is
// zero-filled to the label count; otherwise everything is truncated to the
// shortest array. truncated reports whether any present array lost entries.
// The result never aliases the input.
func (g BucketGroup) Align() (aligned BucketGroup, truncated bool) {
	n := len(g.Labels)
	if g.Alert != nil && len(g.Alert) < n {
		n = len(g.Alert)
	}
	if g.Drop != nil && len(g.Drop) < n {
		n = len(g.Drop)
	}
	truncated = len(g.Labels) != n ||
		(g.Alert != nil && len(g.Alert) != n) ||
		(g.Drop != nil && len(g.Drop) != n)

	aligned = BucketGroup{
		Labels: append([]string(nil), g.Labels[:n]...),
		Alert:  fitValues(g.Alert, n),
		Drop:   fitValues(g.Drop, n),
	}
	return aligned, truncated
}

func fitValues(values []int64, n int) []int64 {
	out := make([]int64, n)
	copy(out, values)
	return out
}

// Presentation aligns the group and reverses it from the backend's
// newest-first order into the oldest-first order the charts display.
func (g BucketGroup) Presentation() (BucketGroup, bool) {
	aligned, truncated := g.Align()
	return BucketGroup{
		Labels: Reverse(aligned.Labels),
		Alert:  Reverse(aligned.Alert),
		Drop:   Reverse(aligned.Drop),
	}, truncated
}
