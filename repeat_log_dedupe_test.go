package main

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestRepeatLogKey(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		ok   bool
	}{
		{
			name: "api error",
			line: "Dashboard API error: fetch http://127.0.0.1:8080/api/dashboard: connection refused",
			want: "api:fetch http://127.0.0.1:8080/api/dashboard: connection refused",
			ok:   true,
		},
		{
			name: "misaligned buckets",
			line: "Dashboard: weekly buckets misaligned (labels=7 alert=6 drop=7); truncated to 6",
			want: "misaligned:weekly",
			ok:   true,
		},
		{
			name: "manual refresh",
			line: "Dashboard: manual refresh ignored; a refresh is already running",
			want: "manual-ignored",
			ok:   true,
		},
		{
			name: "cycle summary",
			line: "Refresh #3: alerts=5 rules=0 whitelist=0 blocklist=0 charts=[hourly] (120 B)",
			ok:   false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := repeatLogKey(tc.line)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (key=%q)", tc.ok, ok, got)
			}
			if tc.ok && got != tc.want {
				t.Fatalf("expected key %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRepeatLogDeduperSuppressesWithinWindow(t *testing.T) {
	now := time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)
	d := newRepeatLogDeduper(10*time.Second, 16)
	if d == nil {
		t.Fatal("expected deduper")
	}
	d.now = func() time.Time { return now }

	line := "Dashboard API error: connection refused"
	if out, ok := d.Process(line); !ok || out != line {
		t.Fatalf("expected first line to pass through, got ok=%v out=%q", ok, out)
	}
	if out, ok := d.Process(line); ok || out != "" {
		t.Fatalf("expected repeat to be suppressed, got ok=%v out=%q", ok, out)
	}
	if _, ok := d.Process("Dashboard API error: status 502"); !ok {
		t.Fatalf("a different error must pass immediately")
	}

	now = now.Add(11 * time.Second)
	out, ok := d.Process(line)
	if !ok || !strings.Contains(out, "repeated 1 times") {
		t.Fatalf("expected suppression summary, got ok=%v out=%q", ok, out)
	}
}

func TestRepeatLogDeduperEvictsOldestKey(t *testing.T) {
	now := time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)
	d := newRepeatLogDeduper(30*time.Second, 2)
	d.now = func() time.Time { return now }

	for _, msg := range []string{"a", "b", "c"} {
		if _, ok := d.Process("Dashboard API error: " + msg); !ok {
			t.Fatalf("expected %s to pass", msg)
		}
		now = now.Add(time.Second)
	}
	if len(d.entries) != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", len(d.entries))
	}
	if _, ok := d.entries["api:a"]; ok {
		t.Fatalf("expected oldest key to be evicted")
	}
}

func TestLogFanoutDedupesConsoleOnly(t *testing.T) {
	var console, file bytes.Buffer
	fanout := newLogFanout(&ioLineSink{w: &console}, &ioLineSink{w: &file})
	fanout.SetConsoleDeduper(newRepeatLogDeduper(time.Hour, 8))

	logger := log.New(fanout, "", 0)
	for i := 0; i < 3; i++ {
		logger.Print("Dashboard API error: connection refused")
	}
	if got := strings.Count(console.String(), "\n"); got != 1 {
		t.Fatalf("expected one console line, got %d: %q", got, console.String())
	}
	if got := strings.Count(file.String(), "\n"); got != 3 {
		t.Fatalf("expected every line in the file sink, got %d", got)
	}
}
