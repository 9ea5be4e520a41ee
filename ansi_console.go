package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"snortdash/config"
	"snortdash/dashboard"
	"snortdash/ui"

	"github.com/dustin/go-humanize"
)

const (
	ansiWidth       = 80
	ansiSystemLines = 8
)

var ansiCounters = []struct {
	name  string
	label string
}{
	{dashboard.CounterThreats, "Total Alerts"},
	{dashboard.CounterRules, "Rules"},
	{dashboard.CounterWhitelist, "Whitelist IPs"},
	{dashboard.CounterBlocklist, "Blocklist IPs"},
}

var ansiCharts = []struct {
	name  string
	title string
}{
	{dashboard.SurfaceHourly, "Alerts per Hour"},
	{dashboard.SurfaceWeekly, "Alerts per Day"},
}

// ansiConsole is a fixed-layout console renderer that uses ANSI escape codes.
// It is selected via ui.mode=ansi and redraws the whole page every refresh
// interval; charts are drawn as text bars.
type ansiConsole struct {
	mu        sync.Mutex
	out       io.Writer
	apiURL    string
	counters  map[string]string
	surfaces  map[string]*ansiSurface
	status    []string
	system    ringPane
	snapSys   []string
	refresh   time.Duration
	quit      chan struct{}
	writer    *ansiWriter
	color     bool
	clear     bool
	renderBuf bytes.Buffer
	stopOnce  sync.Once
}

type ringPane struct {
	lines []string
	idx   int
	count int
}

// Purpose: Construct the ANSI console renderer.
// Key aspects: Only panels listed in uiCfg get counters or chart surfaces; refresh is clamped.
// Upstream: main UI selection based on config.
// Downstream: Start launches refreshLoop.
func newANSIConsole(uiCfg config.UIConfig, apiURL string, out io.Writer) *ansiConsole {
	refresh := uiCfg.RefreshInterval()
	if refresh < 0 {
		refresh = 0
	}
	const minRefresh = 16 * time.Millisecond
	if refresh > 0 && refresh < minRefresh {
		log.Printf("UI: clamping refresh interval to %dms (requested %dms too low)", minRefresh/time.Millisecond, refresh/time.Millisecond)
		refresh = minRefresh
	}

	c := &ansiConsole{
		out:      out,
		apiURL:   apiURL,
		counters: make(map[string]string),
		surfaces: make(map[string]*ansiSurface),
		system:   ringPane{lines: make([]string, ansiSystemLines)},
		snapSys:  make([]string, ansiSystemLines),
		refresh:  refresh,
		quit:     make(chan struct{}),
		color:    uiCfg.Color,
		clear:    uiCfg.ClearScreen,
	}
	for _, counter := range ansiCounters {
		if uiCfg.HasPanel(counter.name) {
			c.counters[counter.name] = "-"
		}
	}
	for _, chart := range ansiCharts {
		if uiCfg.HasPanel(chart.name) {
			c.surfaces[chart.name] = &ansiSurface{}
		}
	}
	c.writer = &ansiWriter{append: c.AppendSystem}
	return c
}

// Purpose: Start periodic rendering.
// Key aspects: No-op when refresh is zero; the loop exits on Stop.
// Upstream: main after construction.
// Downstream: refreshLoop goroutine.
func (c *ansiConsole) Start() {
	if c == nil || c.refresh <= 0 {
		return
	}
	go c.refreshLoop()
}

// WaitReady is a no-op; the ANSI renderer has no async initialization.
func (c *ansiConsole) WaitReady() {}

func (c *ansiConsole) Stop() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() {
		close(c.quit)
	})
}

// Done is closed by Stop. The ANSI console reads no keys, so only a signal or
// the caller ends it.
func (c *ansiConsole) Done() <-chan struct{} {
	return c.quit
}

func (c *ansiConsole) Surface(name string) (dashboard.Surface, bool) {
	s, ok := c.surfaces[name]
	if !ok {
		return nil, false
	}
	return s, true
}

func (c *ansiConsole) SetCounter(name string, value int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.counters[name]; !ok {
		return false
	}
	c.counters[name] = humanize.Comma(value)
	return true
}

func (c *ansiConsole) SetStatus(lines []string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.status = append(c.status[:0], lines...)
	c.mu.Unlock()
}

func (c *ansiConsole) AppendSystem(line string) {
	if c == nil {
		return
	}
	line = time.Now().Format("15:04:05 ") + line
	c.mu.Lock()
	c.system.lines[c.system.idx] = line
	c.system.idx = (c.system.idx + 1) % len(c.system.lines)
	if c.system.count < len(c.system.lines) {
		c.system.count++
	}
	c.mu.Unlock()
}

func (c *ansiConsole) SystemWriter() io.Writer {
	if c == nil {
		return nil
	}
	return c.writer
}

// Purpose: Periodic render loop for ANSI console output.
// Key aspects: Recovers panics, ticks at refresh interval, exits on quit.
// Upstream: Start.
// Downstream: c.render.
func (c *ansiConsole) refreshLoop() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "ANSI console panic: %v\n", r)
		}
	}()
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.render()
		case <-c.quit:
			return
		}
	}
}

// Purpose: Render the current page to the output writer.
// Key aspects: Builds the frame from snapshots, optionally clears screen first.
// Upstream: refreshLoop.
// Downstream: frameLines and applyANSIMarkup.
func (c *ansiConsole) render() {
	if c == nil || c.out == nil {
		return
	}
	lines := c.frameLines()
	c.renderBuf.Reset()
	if c.clear {
		c.renderBuf.WriteString("\x1b[2J\x1b[H")
	}
	for _, line := range lines {
		c.renderBuf.WriteString(applyANSIMarkup(line, c.color))
		c.renderBuf.WriteByte('\n')
	}
	_, _ = c.renderBuf.WriteTo(c.out)
}

// frameLines lays out header, counters, charts, status and the system pane.
func (c *ansiConsole) frameLines() []string {
	c.mu.Lock()
	var counters []string
	for _, counter := range ansiCounters {
		if text, ok := c.counters[counter.name]; ok {
			counters = append(counters, counter.label+": "+text)
		}
	}
	status := append([]string(nil), c.status...)
	system := append([]string(nil), snapshotPane(&c.system, c.snapSys)...)
	c.mu.Unlock()

	lines := []string{"Snort Dashboard  " + c.apiURL}
	if len(counters) > 0 {
		lines = append(lines, strings.Join(counters, " | "))
	}
	for _, chart := range ansiCharts {
		surface, ok := c.surfaces[chart.name]
		if !ok {
			continue
		}
		lines = append(lines, "", "---- "+chart.title+" ----")
		if spec, ok := surface.current(); ok {
			lines = append(lines, ui.TextChartLines(spec, ansiWidth, c.color)...)
		} else {
			lines = append(lines, "(no data)")
		}
	}
	lines = append(lines, "", "---- Status ----")
	lines = append(lines, status...)
	lines = append(lines, "", "---- System ----")
	return append(lines, system...)
}

// Purpose: Snapshot a ring pane into a caller-provided buffer.
// Key aspects: Respects current count and ring order.
// Upstream: frameLines.
// Downstream: None.
func snapshotPane(p *ringPane, buf []string) []string {
	if p == nil || len(p.lines) == 0 || p.count == 0 || len(buf) == 0 {
		return buf[:0]
	}
	start := p.idx - p.count
	if start < 0 {
		start += len(p.lines)
	}
	limit := p.count
	if limit > len(buf) {
		limit = len(buf)
	}
	for i := 0; i < limit; i++ {
		buf[i] = p.lines[(start+i)%len(p.lines)]
	}
	return buf[:limit]
}

// ansiSurface holds the charts mounted on one ANSI chart section. The newest
// mounted chart is the one drawn.
type ansiSurface struct {
	mu      sync.Mutex
	mounted []*ansiChart
}

type ansiChart struct {
	surface *ansiSurface
	spec    dashboard.ChartSpec
	once    sync.Once
}

func (s *ansiSurface) NewChart(spec dashboard.ChartSpec) (dashboard.Chart, error) {
	chart := &ansiChart{surface: s, spec: spec}
	s.mu.Lock()
	s.mounted = append(s.mounted, chart)
	s.mu.Unlock()
	return chart, nil
}

func (s *ansiSurface) Mounted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mounted)
}

func (s *ansiSurface) current() (dashboard.ChartSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.mounted) == 0 {
		return dashboard.ChartSpec{}, false
	}
	return s.mounted[len(s.mounted)-1].spec, true
}

func (c *ansiChart) Destroy() {
	c.once.Do(func() {
		s := c.surface
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, m := range s.mounted {
			if m == c {
				s.mounted = append(s.mounted[:i], s.mounted[i+1:]...)
				return
			}
		}
	})
}

type ansiWriter struct {
	append func(string)
	buf    []byte
	mu     sync.Mutex
}

// Purpose: Implement io.Writer for system logs routed to the ANSI console.
// Key aspects: Buffers until newline and bounds buffer growth.
// Upstream: log output when the ANSI UI is active.
// Downstream: w.append.
func (w *ansiWriter) Write(p []byte) (int, error) {
	if w == nil || w.append == nil {
		return len(p), nil
	}
	const maxWriterBufferSize = 16 * 1024

	w.mu.Lock()
	w.buf = append(w.buf, p...)
	data := w.buf
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, strings.TrimRight(string(data[:idx]), "\r"))
		data = data[idx+1:]
	}
	if len(data) > maxWriterBufferSize {
		// Flush the oversized partial line rather than growing without bound.
		if trimmed := strings.TrimRight(string(data), "\r"); trimmed != "" {
			lines = append(lines, trimmed)
		}
		data = data[:0]
	}
	w.buf = append(w.buf[:0], data...)
	w.mu.Unlock()

	for _, line := range lines {
		w.append(line)
	}
	return len(p), nil
}

// Purpose: Apply or strip ANSI markup tokens.
// Key aspects: Appends a reset code when markup is present.
// Upstream: ansiConsole.render.
// Downstream: strings.Replacer instances.
func applyANSIMarkup(line string, enableColor bool) string {
	if line == "" {
		return line
	}
	if enableColor {
		hasMarkup := strings.Contains(line, "[")
		line = ansiColorReplacer.Replace(line)
		if hasMarkup {
			line += resetANSI
		}
		return line
	}
	return ansiStripReplacer.Replace(line)
}

const resetANSI = "\x1b[0m"

var ansiColorReplacer = strings.NewReplacer(
	"[red]", "\x1b[31m",
	"[green]", "\x1b[32m",
	"[yellow]", "\x1b[33m",
	"[blue]", "\x1b[34m",
	"[magenta]", "\x1b[35m",
	"[cyan]", "\x1b[36m",
	"[white]", "\x1b[37m",
	"[-]", resetANSI,
)

var ansiStripReplacer = strings.NewReplacer(
	"[red]", "",
	"[green]", "",
	"[yellow]", "",
	"[blue]", "",
	"[magenta]", "",
	"[cyan]", "",
	"[white]", "",
	"[-]", "",
)
