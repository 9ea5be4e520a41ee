package dashboard

import (
	"reflect"
	"testing"

	"snortdash/snapshot"
)

func TestReverseIsInvolutive(t *testing.T) {
	inputs := [][]string{
		nil,
		{},
		{"00"},
		{"00", "01"},
		{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"},
	}
	for _, in := range inputs {
		got := Reverse(Reverse(in))
		if !reflect.DeepEqual(got, in) {
			t.Fatalf("reverse(reverse(%v)) = %v", in, got)
		}
	}
}

func TestReverseDoesNotMutateInput(t *testing.T) {
	in := []int64{1, 2, 3}
	out := Reverse(in)
	if !reflect.DeepEqual(out, []int64{3, 2, 1}) {
		t.Fatalf("unexpected reverse %v", out)
	}
	if !reflect.DeepEqual(in, []int64{1, 2, 3}) {
		t.Fatalf("input mutated: %v", in)
	}
	out[0] = 99
	if in[2] != 3 {
		t.Fatalf("output aliases input")
	}
}

func TestPresentationReversesAllThreeArrays(t *testing.T) {
	group := BucketGroup{
		Labels: []string{"00", "01", "02"},
		Alert:  []int64{1, 2, 3},
		Drop:   []int64{0, 1, 0},
	}
	pres, truncated := group.Presentation()
	if truncated {
		t.Fatalf("aligned input reported as truncated")
	}
	if !reflect.DeepEqual(pres.Labels, []string{"02", "01", "00"}) {
		t.Fatalf("labels %v", pres.Labels)
	}
	if !reflect.DeepEqual(pres.Alert, []int64{3, 2, 1}) {
		t.Fatalf("alert %v", pres.Alert)
	}
	if !reflect.DeepEqual(pres.Drop, []int64{0, 1, 0}) {
		t.Fatalf("drop %v", pres.Drop)
	}
	if !reflect.DeepEqual(group.Labels, []string{"00", "01", "02"}) {
		t.Fatalf("source labels mutated: %v", group.Labels)
	}
}

func TestAlignTruncatesToShortest(t *testing.T) {
	group := BucketGroup{
		Labels: []string{"00", "01", "02", "03"},
		Alert:  []int64{1, 2},
		Drop:   []int64{5, 6, 7},
	}
	aligned, truncated := group.Align()
	if !truncated {
		t.Fatalf("expected truncation to be reported")
	}
	if !reflect.DeepEqual(aligned.Labels, []string{"00", "01"}) ||
		!reflect.DeepEqual(aligned.Alert, []int64{1, 2}) ||
		!reflect.DeepEqual(aligned.Drop, []int64{5, 6}) {
		t.Fatalf("unexpected aligned group %+v", aligned)
	}
}

func TestAlignZeroFillsMissingSeries(t *testing.T) {
	group := BucketGroup{Labels: []string{"a", "b"}, Alert: []int64{4, 5}}
	aligned, truncated := group.Align()
	if truncated {
		t.Fatalf("zero-fill should not count as truncation")
	}
	if !reflect.DeepEqual(aligned.Drop, []int64{0, 0}) {
		t.Fatalf("expected zero-filled drop series, got %v", aligned.Drop)
	}
}

func TestGroupsFromSnapshot(t *testing.T) {
	snap := &snapshot.Snapshot{
		HourLabels: labelsp("00"),
		HourAlert:  []int64{1},
		HourDrop:   []int64{2},
	}
	if _, ok := HourlyGroup(snap); !ok {
		t.Fatalf("expected hourly group")
	}
	if _, ok := WeeklyGroup(snap); ok {
		t.Fatalf("expected weekly group to be absent")
	}
	if _, ok := SlotWeekly.Group(nil); ok {
		t.Fatalf("expected nil snapshot to have no groups")
	}
	empty := &snapshot.Snapshot{WeekLabels: labelsp()}
	group, ok := SlotWeekly.Group(empty)
	if !ok {
		t.Fatalf("expected empty week labels to be present")
	}
	if pres, _ := group.Presentation(); len(pres.Labels) != 0 {
		t.Fatalf("expected empty presentation, got %v", pres.Labels)
	}
}
