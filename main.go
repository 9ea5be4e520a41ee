// Program snortdash polls a Snort statistics endpoint and renders the alert
// counters and the hourly and weekly alert charts in the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"snortdash/config"
	"snortdash/dashboard"
	"snortdash/metrics"
	"snortdash/snapshot"
	"snortdash/stats"
	"snortdash/ui"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/term"
)

const (
	defaultConfigPath = "data/config"
	envConfigPath     = "SNORTDASH_CONFIG_PATH"
	envAPIURL         = "SNORTDASH_API_URL"
	statusInterval    = time.Second
)

// Purpose: Report whether stdout is a TTY for UI gating.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: main UI selection.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Purpose: Load configuration from env/default locations.
// Key aspects: Env override first, then the default dir; built-in defaults when neither exists.
// Upstream: main startup.
// Downstream: config.Load.
func loadDashboardConfig() (*config.Config, string, error) {
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)

	for _, path := range candidates {
		cfg, err := config.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, path, err
		}
		return cfg, cfg.LoadedFrom, nil
	}
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, "(defaults)", nil
}

// Purpose: Apply environment overrides and check the API URL.
// Key aspects: SNORTDASH_API_URL replaces api.url; the result must be an absolute http(s) URL.
// Upstream: main startup after config load.
// Downstream: snapshot.ValidateURL.
func applyEnvOverrides(cfg *config.Config) error {
	if raw := strings.TrimSpace(os.Getenv(envAPIURL)); raw != "" {
		cfg.API.URL = raw
	}
	target, err := snapshot.ValidateURL(cfg.API.URL)
	if err != nil {
		return fmt.Errorf("%w (set api.url or %s)", err, envAPIURL)
	}
	cfg.API.URL = target
	return nil
}

// Purpose: Decide which renderer runs.
// Key aspects: tview and ansi need an interactive stdout; anything else runs headless.
// Upstream: main UI selection.
// Downstream: None.
func effectiveUIMode(mode string, tty bool) (string, string) {
	switch mode {
	case config.UIModeTView, config.UIModeANSI:
		if !tty {
			return config.UIModeHeadless, fmt.Sprintf("UI disabled (%s requires an interactive console)", mode)
		}
		return mode, ""
	case config.UIModeHeadless:
		return mode, "UI disabled (mode=headless)"
	default:
		return config.UIModeHeadless, fmt.Sprintf("UI mode %q not recognized; defaulting to headless", mode)
	}
}

// Purpose: Build the snapshot fetcher from the api section.
// Key aspects: Timeout, user agent and body cap come from config.
// Upstream: main startup.
// Downstream: snapshot.NewFetcher.
func newFetcher(cfg config.APIConfig) (*snapshot.Fetcher, error) {
	return snapshot.NewFetcher(snapshot.Config{
		URL:          cfg.URL,
		Timeout:      cfg.Timeout(),
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
}

// Purpose: Report readiness for the metrics server's /healthz.
// Key aspects: Unhealthy only while the most recently finished cycle failed.
// Upstream: metrics.NewServer.
// Downstream: stats.Tracker.Summary.
func trackerHealth(tracker *stats.Tracker) metrics.HealthFunc {
	return func() (bool, string) {
		s := tracker.Summary()
		if s.LastErr == nil {
			return true, fmt.Sprintf("ok cycles=%d", s.Cycles)
		}
		return false, fmt.Sprintf("last refresh failed: %v", s.LastErr)
	}
}

// Purpose: Periodically push tracker and runtime status to the console.
// Key aspects: Runs until ctx is done; immediate first update.
// Upstream: main startup.
// Downstream: stats.Tracker.StatusLines, runtimeSampler and ui.Console.SetStatus.
func statusLoop(ctx context.Context, interval time.Duration, tracker *stats.Tracker, console ui.Console) {
	var sampler runtimeSampler
	push := func(now time.Time) {
		console.SetStatus(append(tracker.StatusLines(now), sampler.sample()))
	}
	push(time.Now())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			push(now)
		case <-ctx.Done():
			return
		}
	}
}

// Purpose: Program entrypoint; wires configuration, fetcher, refresh scheduler and UI.
// Key aspects: Exits on SIGINT/SIGTERM or when the user quits the page.
// Upstream: OS process start.
// Downstream: dashboard.Scheduler, ui.Page / ansiConsole, metrics server.
func main() {
	cfg, configSource, err := loadDashboardConfig()
	if err != nil {
		log.Fatalf("Error loading config from %s: %v", configSource, err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		log.Fatalf("Error in config: %v", err)
	}

	fanout, logErr := setupLogging(cfg.Logging, os.Stdout)
	log.SetFlags(0)
	log.SetOutput(fanout)
	defer fanout.Close()
	if logErr != nil {
		log.Printf("Logging: file logging disabled: %v", logErr)
	}
	log.Printf("Loaded configuration from %s", configSource)

	mode, reason := effectiveUIMode(cfg.UI.Mode, isStdoutTTY())
	if reason != "" {
		log.Print(reason)
	}

	var console ui.Console
	var page *ui.Page
	switch mode {
	case config.UIModeTView:
		page = ui.NewPage(cfg.UI, cfg.API.URL)
		console = page
	case config.UIModeANSI:
		ansi := newANSIConsole(cfg.UI, cfg.API.URL, os.Stdout)
		ansi.Start()
		console = ansi
	}

	var display dashboard.Display
	if console != nil {
		console.WaitReady()
		defer console.Stop()
		// The page stamps its own time; drop the fanout's console timestamp.
		fanout.SetConsoleSink(console.SystemWriter(), false)
		fanout.SetConsoleDeduper(newRepeatLogDeduper(consoleDedupeWindow, consoleDedupeMaxKeys))
		display = console
	} else {
		cfg.Print()
	}

	fetcher, err := newFetcher(cfg.API)
	if err != nil {
		log.Fatalf("Error creating fetcher: %v", err)
	}
	policy, err := dashboard.ParseOverlapPolicy(cfg.Refresh.Overlap)
	if err != nil {
		log.Fatalf("Error in config: %v", err)
	}

	tracker := stats.NewTracker()
	observers := dashboard.Observers{tracker}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observers = append(observers, metrics.NewMetrics(reg))
		metricsServer = metrics.NewServer(cfg.Metrics.Listen, reg, trackerHealth(tracker))
		if err := metricsServer.Start(); err != nil {
			log.Printf("Metrics: server disabled: %v", err)
			metricsServer = nil
		} else {
			log.Printf("Metrics: serving http://%s/metrics", cfg.Metrics.Listen)
		}
	}

	refresher := dashboard.NewRefresher(fetcher, display, nil, nil, observers)
	refresher.SetLogCycles(cfg.Refresh.LogCycles || console == nil)
	scheduler := dashboard.NewScheduler(refresher, cfg.Refresh.Interval(), policy, observers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if page != nil {
		page.SetRefreshHandler(func() {
			if !scheduler.Tick(ctx) {
				log.Printf("Dashboard: manual refresh ignored; a refresh is already running")
			}
		})
	}
	if console != nil {
		go statusLoop(ctx, statusInterval, tracker, console)
	}

	schedulerDone := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(schedulerDone)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Printf("Polling %s every %s (overlap=%s)", fetcher.URL(), scheduler.Interval(), scheduler.Policy())

	var consoleDone <-chan struct{}
	if console != nil {
		consoleDone = console.Done()
	}
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case <-consoleDone:
		log.Printf("Console closed")
	}

	cancel()
	select {
	case <-schedulerDone:
	case <-time.After(cfg.API.Timeout() + time.Second):
		log.Printf("Dashboard: refresh still running at shutdown")
	}
	if metricsServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics: shutdown: %v", err)
		}
		stop()
	}
	if console != nil {
		console.Stop()
		// Later log lines go to stdout again once the page is gone.
		fanout.SetConsoleSink(os.Stdout, true)
		fanout.SetConsoleDeduper(nil)
	}
	log.Printf("Dashboard stopped")
}
