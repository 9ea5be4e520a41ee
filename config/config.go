package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete dashboard configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Refresh RefreshConfig `yaml:"refresh"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`

	// LoadedFrom is the directory the configuration was merged from. Empty
	// when only defaults are in effect.
	LoadedFrom string `yaml:"-"`
}

// APIConfig describes the snapshot endpoint.
type APIConfig struct {
	URL          string `yaml:"url"`
	TimeoutMS    int    `yaml:"timeout_ms"`
	UserAgent    string `yaml:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// RefreshConfig controls the polling scheduler.
type RefreshConfig struct {
	IntervalMS int    `yaml:"interval_ms"`
	Overlap    string `yaml:"overlap"`
	LogCycles  bool   `yaml:"log_cycles"`
}

// UIConfig selects and tunes the local console renderer.
type UIConfig struct {
	Mode        string   `yaml:"mode"`
	Color       bool     `yaml:"color"`
	ClearScreen bool     `yaml:"clear_screen"`
	RefreshMS   int      `yaml:"refresh_ms"`
	TargetFPS   int      `yaml:"target_fps"`
	EnableMouse bool     `yaml:"enable_mouse"`
	Panels      []string `yaml:"panels"`
}

// LoggingConfig controls the optional daily log files.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// UI modes.
const (
	UIModeTView    = "tview"
	UIModeANSI     = "ansi"
	UIModeHeadless = "headless"
)

// Panel names double as the render target names the dashboard writes to.
const (
	PanelThreats   = "threats-count"
	PanelRules     = "rules-count"
	PanelWhitelist = "whitelist-count"
	PanelBlocklist = "blocklist-count"
	PanelHourly    = "hourlyChart"
	PanelWeekly    = "weeklyChart"
)

// DefaultPanels is the full page: four counters and both charts.
var DefaultPanels = []string{
	PanelThreats, PanelRules, PanelWhitelist, PanelBlocklist, PanelHourly, PanelWeekly,
}

var overlapPolicies = map[string]bool{"skip": true, "queue": true, "allow": true}

// Default returns the configuration used when no config directory exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			TimeoutMS:    10000,
			UserAgent:    "snortdash/1.0",
			MaxBodyBytes: 4 << 20,
		},
		Refresh: RefreshConfig{
			IntervalMS: 5000,
			Overlap:    "skip",
		},
		UI: UIConfig{
			Mode:        UIModeTView,
			Color:       true,
			ClearScreen: true,
			RefreshMS:   250,
			TargetFPS:   30,
			EnableMouse: true,
			Panels:      append([]string(nil), DefaultPanels...),
		},
		Logging: LoggingConfig{
			Dir:           filepath.Join("data", "logs"),
			RetentionDays: 7,
		},
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9464",
		},
	}
}

// Load merges every .yaml/.yml file in dir, in name order, on top of the
// defaults. Later files override keys set by earlier ones; nested mappings
// are merged key by key. A path that is not a directory is rejected.
func Load(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path %s is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no yaml files found in %s", dir)
	}
	sort.Strings(files)

	merged := map[string]any{}
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", name, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", name, err)
		}
		mergeMaps(merged, doc)
	}

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config files: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LoadedFrom = dir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeMaps copies src into dst, descending into mappings present on both
// sides. Sequences and scalars from src replace what dst had.
func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}

// Validate normalizes enumerations and rejects values the program cannot run
// with. The API URL is checked later, after environment overrides.
func (c *Config) Validate() error {
	if c.API.TimeoutMS <= 0 {
		return fmt.Errorf("api.timeout_ms must be positive, got %d", c.API.TimeoutMS)
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("api.max_body_bytes must be positive, got %d", c.API.MaxBodyBytes)
	}
	if c.Refresh.IntervalMS < 100 {
		return fmt.Errorf("refresh.interval_ms must be at least 100, got %d", c.Refresh.IntervalMS)
	}
	c.Refresh.Overlap = strings.ToLower(strings.TrimSpace(c.Refresh.Overlap))
	if c.Refresh.Overlap == "" {
		c.Refresh.Overlap = "skip"
	}
	if !overlapPolicies[c.Refresh.Overlap] {
		return fmt.Errorf("refresh.overlap %q is invalid (want skip, queue or allow)", c.Refresh.Overlap)
	}

	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	switch c.UI.Mode {
	case UIModeTView, UIModeANSI, UIModeHeadless:
	case "":
		c.UI.Mode = UIModeTView
	default:
		return fmt.Errorf("ui.mode %q is invalid (want tview, ansi or headless)", c.UI.Mode)
	}
	if c.UI.RefreshMS <= 0 {
		c.UI.RefreshMS = 250
	}
	if c.UI.TargetFPS <= 0 {
		c.UI.TargetFPS = 30
	}
	if c.UI.TargetFPS > 120 {
		c.UI.TargetFPS = 120
	}
	seen := make(map[string]bool, len(c.UI.Panels))
	for _, panel := range c.UI.Panels {
		if !isKnownPanel(panel) {
			return fmt.Errorf("ui.panels: unknown panel %q", panel)
		}
		if seen[panel] {
			return fmt.Errorf("ui.panels: duplicate panel %q", panel)
		}
		seen[panel] = true
	}

	if c.Logging.RetentionDays < 0 {
		return fmt.Errorf("logging.retention_days must not be negative, got %d", c.Logging.RetentionDays)
	}
	if c.Logging.Enabled && strings.TrimSpace(c.Logging.Dir) == "" {
		return fmt.Errorf("logging.dir is required when logging is enabled")
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Listen) == "" {
		return fmt.Errorf("metrics.listen is required when metrics are enabled")
	}
	return nil
}

func isKnownPanel(name string) bool {
	for _, p := range DefaultPanels {
		if p == name {
			return true
		}
	}
	return false
}

// HasPanel reports whether the page should include the named render target.
func (u UIConfig) HasPanel(name string) bool {
	for _, p := range u.Panels {
		if p == name {
			return true
		}
	}
	return false
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// Interval returns the polling period.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}

// RefreshInterval returns the ANSI console repaint period.
func (u UIConfig) RefreshInterval() time.Duration {
	return time.Duration(u.RefreshMS) * time.Millisecond
}

// Print displays the configuration
func (c *Config) Print() {
	source := c.LoadedFrom
	if source == "" {
		source = "(defaults)"
	}
	fmt.Printf("Config: %s\n", source)
	fmt.Printf("API: %s (timeout=%dms)\n", c.API.URL, c.API.TimeoutMS)
	fmt.Printf("Refresh: every %dms (overlap=%s)\n", c.Refresh.IntervalMS, c.Refresh.Overlap)
	fmt.Printf("UI: %s (panels: %s)\n", c.UI.Mode, strings.Join(c.UI.Panels, ", "))
	if c.Logging.Enabled {
		fmt.Printf("Logging: %s (retention=%dd)\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
	if c.Metrics.Enabled {
		fmt.Printf("Metrics: http://%s/metrics\n", c.Metrics.Listen)
	}
}
