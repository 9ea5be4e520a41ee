package ui

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"snortdash/config"
	"snortdash/dashboard"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const systemPaneLines = 200

const (
	accentTag   = "[#ff69b4]"
	accentReset = "[-]"
)

var (
	uiBorderColor = tcell.ColorGray
	uiTitleColor  = tcell.ColorHotPink
)

var counterTitles = map[string]string{
	dashboard.CounterThreats:   "Total Alerts",
	dashboard.CounterRules:     "Rules",
	dashboard.CounterWhitelist: "Whitelist IPs",
	dashboard.CounterBlocklist: "Blocklist IPs",
}

var counterOrder = []string{
	dashboard.CounterThreats,
	dashboard.CounterRules,
	dashboard.CounterWhitelist,
	dashboard.CounterBlocklist,
}

var chartTitles = map[string]string{
	dashboard.SurfaceHourly: "Alerts per Hour",
	dashboard.SurfaceWeekly: "Alerts per Day",
}

// Page is the tview dashboard: four counters, the hourly and weekly chart
// slots, a status block and the system log. It implements dashboard.Display
// and Console.
type Page struct {
	app       *tview.Application
	scheduler *frameScheduler
	metrics   *Metrics

	root   *tview.Flex
	header *tview.TextView
	status *tview.TextView
	system *tview.TextView
	footer *tview.TextView

	counters map[string]*tview.TextView
	surfaces map[string]*chartSurface

	systemLines *lineRing

	refreshMu sync.Mutex
	onRefresh func()

	ready    chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewPage builds the page and starts the tview application.
func NewPage(cfg config.UIConfig, apiURL string) *Page {
	app := tview.NewApplication().EnableMouse(cfg.EnableMouse)
	p := newPage(cfg, apiURL, app)

	var once sync.Once
	app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		once.Do(func() { close(p.ready) })
		return false
	})
	app.SetInputCapture(p.handleKey)
	app.SetRoot(p.root, true)

	p.scheduler.Start()
	go func() {
		if err := app.Run(); err != nil {
			log.Printf("UI: tview error: %v", err)
		}
		p.Stop()
	}()
	return p
}

// newPage lays out the primitives. With a nil app nothing is drawn and
// scheduled updates apply when the scheduler is flushed.
func newPage(cfg config.UIConfig, apiURL string, app *tview.Application) *Page {
	metrics := NewMetrics()
	p := &Page{
		app:         app,
		metrics:     metrics,
		counters:    make(map[string]*tview.TextView),
		surfaces:    make(map[string]*chartSurface),
		systemLines: newLineRing(systemPaneLines),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
	}
	p.scheduler = newFrameScheduler(app, cfg.TargetFPS, 100*time.Millisecond, metrics.ObserveRender)
	if app == nil {
		close(p.ready)
	}

	p.header = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	p.header.SetText(accentText("Snort Dashboard") + "  " + tview.Escape(apiURL))

	counterRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	for _, name := range counterOrder {
		if !cfg.HasPanel(name) {
			continue
		}
		tv := newBoxedTextView(counterTitles[name])
		tv.SetTextAlign(tview.AlignCenter)
		tv.SetText("-")
		p.counters[name] = tv
		counterRow.AddItem(tv, 0, 1, false)
	}

	chartRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	for _, name := range []string{dashboard.SurfaceHourly, dashboard.SurfaceWeekly} {
		if !cfg.HasPanel(name) {
			continue
		}
		s := newChartSurface(name, chartTitles[name], p.scheduler, metrics, cfg.Color)
		p.surfaces[name] = s
		chartRow.AddItem(s.container, 0, 1, false)
	}

	p.status = newBoxedTextView("Status")
	p.status.SetText("Waiting for first snapshot")
	p.system = newBoxedTextView("System")
	p.system.SetDynamicColors(false)
	p.system.SetScrollable(true)
	p.footer = tview.NewTextView().SetDynamicColors(true).SetText(
		accentText("R") + " Refresh now  " + accentText("Q") + " Quit",
	)

	p.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.header, 1, 0, false)
	if len(p.counters) > 0 {
		p.root.AddItem(counterRow, 3, 0, false)
	}
	if len(p.surfaces) > 0 {
		p.root.AddItem(chartRow, 0, 1, false)
	}
	p.root.
		AddItem(p.status, 7, 0, false).
		AddItem(p.system, 8, 0, false).
		AddItem(p.footer, 1, 0, false)
	return p
}

func (p *Page) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event == nil {
		return event
	}
	if event.Key() == tcell.KeyCtrlC {
		p.Stop()
		return nil
	}
	switch event.Rune() {
	case 'q', 'Q':
		p.Stop()
		return nil
	case 'r', 'R':
		p.refreshMu.Lock()
		fn := p.onRefresh
		p.refreshMu.Unlock()
		if fn != nil {
			p.metrics.ManualRefresh()
			fn()
		}
		return nil
	}
	return event
}

// SetRefreshHandler installs the callback for the manual refresh key. It
// must not block.
func (p *Page) SetRefreshHandler(fn func()) {
	p.refreshMu.Lock()
	p.onRefresh = fn
	p.refreshMu.Unlock()
}

func (p *Page) Surface(name string) (dashboard.Surface, bool) {
	s, ok := p.surfaces[name]
	if !ok {
		return nil, false
	}
	return s, true
}

func (p *Page) SetCounter(name string, value int64) bool {
	tv, ok := p.counters[name]
	if !ok {
		return false
	}
	text := "[::b]" + humanize.Comma(value)
	p.scheduler.Schedule("counter:"+name, func() {
		tv.SetText(text)
	})
	return true
}

// SetStatus replaces the status block. A render latency line is appended once
// frames have been drawn.
func (p *Page) SetStatus(lines []string) {
	out := append([]string(nil), lines...)
	if snap := p.metrics.RenderSnapshot(); snap.N > 0 {
		out = append(out, fmt.Sprintf("UI: frame p50=%s p99=%s charts=%d",
			snap.P50.Round(time.Microsecond), snap.P99.Round(time.Microsecond), p.metrics.ChartsMounted()))
	}
	text := padLines(strings.Join(out, "\n"))
	p.scheduler.Schedule("status", func() {
		p.status.SetText(text)
	})
}

func (p *Page) AppendSystem(line string) {
	p.systemLines.Append(time.Now().Format("15:04:05 ") + line)
	p.scheduler.Schedule("system", func() {
		p.system.SetText(strings.Join(p.systemLines.Snapshot(), "\n"))
		p.system.ScrollToEnd()
	})
}

func (p *Page) SystemWriter() io.Writer {
	return &paneWriter{append: p.AppendSystem}
}

func (p *Page) Metrics() *Metrics {
	return p.metrics
}

func (p *Page) WaitReady() {
	<-p.ready
}

func (p *Page) Done() <-chan struct{} {
	return p.done
}

func (p *Page) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.scheduler.Stop()
		if p.app != nil {
			p.app.Stop()
		}
	})
}

func newBoxedTextView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	tv.SetBorder(true)
	if title != "" {
		tv.SetTitle(accentText(title)).SetTitleAlign(tview.AlignLeft)
	}
	tv.SetBorderColor(uiBorderColor)
	tv.SetTitleColor(uiTitleColor)
	return tv
}

func padLines(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = " " + line
	}
	return strings.Join(lines, "\n")
}

func accentText(text string) string {
	if text == "" {
		return ""
	}
	return accentTag + text + accentReset
}
