package ui

import (
	"testing"

	"snortdash/dashboard"

	"github.com/gdamore/tcell/v2"
)

func TestLayoutChartScalesToAxisMaximum(t *testing.T) {
	spec := dashboard.NewBarChartSpec([]string{"02", "01", "00"}, []int64{500, 3, 1500}, []int64{0, 1000, 0})
	l := layoutChart(spec, 103)
	if l.LabelWidth != 2 || l.BarX != 3 || l.BarWidth != 100 {
		t.Fatalf("unexpected geometry %+v", l)
	}
	if len(l.Rows) != 3 {
		t.Fatalf("expected a row per bucket, got %d", len(l.Rows))
	}
	cases := []struct {
		row         int
		alert, drop int
	}{
		{0, 50, 0},
		{1, 1, 100},
		{2, 100, 0},
	}
	for _, tc := range cases {
		row := l.Rows[tc.row]
		if row.AlertCells != tc.alert || row.DropCells != tc.drop {
			t.Fatalf("row %d cells alert=%d drop=%d, want %d/%d", tc.row, row.AlertCells, row.DropCells, tc.alert, tc.drop)
		}
	}
	if l.Rows[2].Alert != 1500 {
		t.Fatalf("clipping must not change the reported value, got %d", l.Rows[2].Alert)
	}
}

func TestLayoutChartTicks(t *testing.T) {
	spec := dashboard.NewBarChartSpec(nil, nil, nil)
	wide := layoutChart(spec, 100)
	if len(wide.Ticks) != 11 {
		t.Fatalf("expected 11 ticks at width 100, got %d", len(wide.Ticks))
	}
	if wide.Ticks[0].Text != "0" || wide.Ticks[10].Text != "1000" {
		t.Fatalf("unexpected tick text %q..%q", wide.Ticks[0].Text, wide.Ticks[10].Text)
	}

	narrow := layoutChart(spec, 20)
	if len(narrow.Ticks) == 0 || len(narrow.Ticks) >= 11 {
		t.Fatalf("expected some but not all ticks at width 20, got %d", len(narrow.Ticks))
	}
	end := -1
	for _, tick := range narrow.Ticks {
		if tick.Offset <= end {
			t.Fatalf("tick %q overlaps previous tick", tick.Text)
		}
		end = tick.Offset + len(tick.Text)
		if end > narrow.BarWidth {
			t.Fatalf("tick %q runs past the bar area", tick.Text)
		}
	}
}

func TestLayoutChartCapsLongLabels(t *testing.T) {
	spec := dashboard.NewBarChartSpec([]string{"a-very-long-bucket-label"}, []int64{1}, []int64{1})
	l := layoutChart(spec, 30)
	if l.LabelWidth != 10 {
		t.Fatalf("expected label width capped at 10, got %d", l.LabelWidth)
	}
	if l.Rows[0].Label != "a-very-lon" {
		t.Fatalf("unexpected truncated label %q", l.Rows[0].Label)
	}
}

func TestBarChartTooltipFollowsHover(t *testing.T) {
	chart := NewBarChart(dashboard.NewBarChartSpec([]string{"02", "01"}, []int64{500, 7}, []int64{0, 2}), false)
	chart.SetRect(0, 0, 40, 6)

	if chart.Tooltip() != "" {
		t.Fatalf("expected no tooltip before hover")
	}
	chart.setHoverRow(2)
	if got := chart.Tooltip(); got != "01  Alert: 7  Drop: 2" {
		t.Fatalf("unexpected tooltip %q", got)
	}
	chart.setHoverRow(0)
	if chart.Tooltip() != "" {
		t.Fatalf("legend row must clear the hover")
	}
}

func TestBarChartDraw(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(40, 6)

	chart := NewBarChart(dashboard.NewBarChartSpec([]string{"02", "01"}, []int64{500, 500}, []int64{0, 500}), false)
	chart.SetRect(0, 0, 40, 6)
	chart.Draw(screen)

	runeAt := func(x, y int) rune {
		r, _, _, _ := screen.GetContent(x, y)
		return r
	}
	if runeAt(0, 0) != runeUpper {
		t.Fatalf("expected legend glyph, got %q", runeAt(0, 0))
	}
	if runeAt(0, 1) != '0' || runeAt(1, 1) != '2' {
		t.Fatalf("expected first bucket label on row 1")
	}
	// Bar area starts at column 3 and is 37 cells wide; 500 of 1000 is 19 cells.
	if runeAt(3, 1) != runeUpper || runeAt(21, 1) != runeUpper {
		t.Fatalf("expected alert bar on row 1")
	}
	if runeAt(22, 1) != ' ' {
		t.Fatalf("alert bar drawn past its length: %q", runeAt(22, 1))
	}
	if runeAt(3, 2) != runeFull {
		t.Fatalf("expected overlapping bars to use a full block without colour, got %q", runeAt(3, 2))
	}
	if runeAt(3, 3) != '0' {
		t.Fatalf("expected axis ticks below the bars, got %q", runeAt(3, 3))
	}
}
