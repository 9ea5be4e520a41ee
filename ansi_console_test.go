package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"snortdash/config"
	"snortdash/dashboard"
)

func newTestANSIConsole(t *testing.T, panels ...string) (*ansiConsole, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default().UI
	cfg.Color = false
	cfg.ClearScreen = false
	if len(panels) > 0 {
		cfg.Panels = panels
	}
	var out bytes.Buffer
	c := newANSIConsole(cfg, "http://127.0.0.1:8080/api/dashboard", &out)
	t.Cleanup(c.Stop)
	return c, &out
}

func TestANSIMarkup(t *testing.T) {
	if got := applyANSIMarkup("[red]X[-]", true); got != "\x1b[31mX\x1b[0m\x1b[0m" {
		t.Fatalf("unexpected colored markup %q", got)
	}
	if got := applyANSIMarkup("[red]X[-]", false); got != "X" {
		t.Fatalf("unexpected stripped markup %q", got)
	}
	if got := applyANSIMarkup("plain", true); got != "plain" {
		t.Fatalf("plain text changed: %q", got)
	}
}

func TestANSIConsoleRendersPage(t *testing.T) {
	c, out := newTestANSIConsole(t)
	c.SetCounter(dashboard.CounterThreats, 12345)
	c.SetCounter(dashboard.CounterRules, 0)

	mgr := dashboard.NewSlotManager(c, nil, nil)
	if err := mgr.Render(dashboard.SlotHourly, []string{"02", "01"}, []int64{500, 3}, []int64{0, 1}); err != nil {
		t.Fatalf("render: %v", err)
	}
	c.SetStatus([]string{"Cycles: ok=1 failed=0 skipped=0", "[red]Last error 5s ago: boom[-]"})
	fmt.Fprintln(c.SystemWriter(), "Dashboard API error: boom")

	c.render()
	frame := out.String()
	for _, want := range []string{
		"Total Alerts: 12,345 | Rules: 0 | Whitelist IPs: - | Blocklist IPs: -",
		"---- Alerts per Hour ----",
		"▀ Alert  ▄ Drop",
		"---- Alerts per Day ----\n(no data)",
		"Cycles: ok=1 failed=0 skipped=0",
		"Last error 5s ago: boom\n",
		"Dashboard API error: boom",
	} {
		if !strings.Contains(frame, want) {
			t.Fatalf("frame missing %q:\n%s", want, frame)
		}
	}
	if strings.Contains(frame, "\x1b[") {
		t.Fatalf("expected no escape codes with color disabled")
	}
}

func TestANSIConsoleKeepsOneChartPerSection(t *testing.T) {
	c, _ := newTestANSIConsole(t)
	mgr := dashboard.NewSlotManager(c, nil, nil)
	for i := 0; i < 4; i++ {
		if err := mgr.Render(dashboard.SlotWeekly, []string{"Senin"}, []int64{int64(i)}, []int64{0}); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
	surface := c.surfaces[dashboard.SurfaceWeekly]
	if surface.Mounted() != 1 {
		t.Fatalf("expected one mounted chart, got %d", surface.Mounted())
	}
	spec, ok := surface.current()
	if !ok || spec.Series[0].Values[0] != 3 {
		t.Fatalf("expected the latest chart to be current")
	}
}

func TestANSIConsoleHonoursPanels(t *testing.T) {
	c, out := newTestANSIConsole(t, config.PanelThreats)
	if c.SetCounter(dashboard.CounterRules, 1) {
		t.Fatalf("rules counter should be absent")
	}
	if _, ok := c.Surface(dashboard.SurfaceHourly); ok {
		t.Fatalf("hourly surface should be absent")
	}
	c.render()
	if strings.Contains(out.String(), "Alerts per Hour") {
		t.Fatalf("excluded chart section rendered")
	}
}

func TestANSIWriterBuffersPartialLines(t *testing.T) {
	var got []string
	w := &ansiWriter{append: func(line string) { got = append(got, line) }}
	fmt.Fprint(w, "one\r\ntw")
	fmt.Fprint(w, "o\n")
	if strings.Join(got, ",") != "one,two" {
		t.Fatalf("unexpected lines %q", got)
	}
}

func TestSnapshotPaneOrder(t *testing.T) {
	p := ringPane{lines: make([]string, 3)}
	for _, line := range []string{"a", "b", "c", "d"} {
		p.lines[p.idx] = line
		p.idx = (p.idx + 1) % len(p.lines)
		if p.count < len(p.lines) {
			p.count++
		}
	}
	if got := strings.Join(snapshotPane(&p, make([]string, 3)), ","); got != "b,c,d" {
		t.Fatalf("unexpected pane order %q", got)
	}
}

func TestANSIConsoleDoneClosesOnStop(t *testing.T) {
	c, _ := newTestANSIConsole(t)
	c.Stop()
	c.Stop()
	select {
	case <-c.Done():
	default:
		t.Fatalf("expected Done to be closed")
	}
}
