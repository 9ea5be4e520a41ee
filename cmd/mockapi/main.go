package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"snortdash/snapshot"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var weekdays = []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}

// mockapi serves synthetic dashboard snapshots so the terminal dashboard can
// be run and profiled without a Snort backend. Latency and failure injection
// exercise the refresh overlap policies and the error path.
func main() {
	var (
		listen   = flag.String("listen", "127.0.0.1:8080", "listen address")
		path     = flag.String("path", "/api/dashboard", "snapshot route")
		latency  = flag.Duration("latency", 0, "delay before each response")
		failRate = flag.Float64("fail-rate", 0, "fraction of requests answered with HTTP 500")
		badJSON  = flag.Float64("bad-json-rate", 0, "fraction of requests answered with a malformed body")
		misalign = flag.Bool("misalign", false, "drop the last hourly drop value to produce misaligned buckets")
		seed     = flag.Int64("seed", time.Now().UTC().UnixNano(), "random seed")
	)
	flag.Parse()

	if *failRate < 0 || *failRate > 1 || *badJSON < 0 || *badJSON > 1 {
		log.Fatalf("rates must be within [0,1] (fail-rate=%v bad-json-rate=%v)", *failRate, *badJSON)
	}

	gen := newGenerator(*seed, *misalign)
	h := &handler{gen: gen, latency: *latency, failRate: *failRate, badJSON: *badJSON, rng: rand.New(rand.NewSource(*seed + 1))}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(*path, h.ServeHTTP)

	log.Printf("mockapi: serving http://%s%s latency=%s fail-rate=%.2f bad-json-rate=%.2f misalign=%t",
		*listen, *path, latency.String(), *failRate, *badJSON, *misalign)
	if err := http.ListenAndServe(*listen, r); err != nil {
		log.Fatalf("mockapi: %v", err)
	}
}

type handler struct {
	gen      *generator
	latency  time.Duration
	failRate float64
	badJSON  float64

	mu       sync.Mutex
	rng      *rand.Rand
	requests atomic.Uint64
}

func (h *handler) roll() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64()
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.requests.Add(1)
	if h.latency > 0 {
		select {
		case <-time.After(h.latency):
		case <-r.Context().Done():
			return
		}
	}
	if h.failRate > 0 && h.roll() < h.failRate {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if h.badJSON > 0 && h.roll() < h.badJSON {
		_, _ = w.Write([]byte(`{"total_alerts": `))
		return
	}
	body, err := json.Marshal(h.gen.next(time.Now()))
	if err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
		return
	}
	if n%100 == 0 {
		log.Printf("mockapi: served %d snapshots", n)
	}
	_, _ = w.Write(body)
}

// generator produces a slowly growing alert history: totals only increase and
// bucket values are bounded to the chart's fixed axis.
type generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	misalign bool
	alerts   int64
	rules    int64
}

func newGenerator(seed int64, misalign bool) *generator {
	return &generator{rng: rand.New(rand.NewSource(seed)), misalign: misalign, rules: 30000}
}

func (g *generator) next(now time.Time) *snapshot.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.alerts += int64(g.rng.Intn(50))
	whitelist := int64(10 + g.rng.Intn(5))
	blocklist := int64(200 + g.rng.Intn(50))
	alerts, rules := g.alerts, g.rules

	hourLabels := make([]string, 24)
	for i := range hourLabels {
		hourLabels[i] = fmt.Sprintf("%02d", (now.Hour()-23+i+24)%24)
	}
	hourAlert, hourDrop := g.buckets(24)
	if g.misalign {
		hourDrop = hourDrop[:len(hourDrop)-1]
	}

	weekLabels := make([]string, len(weekdays))
	start := int(now.Weekday()) + 6 // Sunday is index 6 in weekdays
	for i := range weekLabels {
		weekLabels[i] = weekdays[(start+1+i)%len(weekdays)]
	}
	weekAlert, weekDrop := g.buckets(len(weekdays))

	return &snapshot.Snapshot{
		TotalAlerts:      &alerts,
		TotalRules:       &rules,
		TotalIPWhitelist: &whitelist,
		TotalIPBlocklist: &blocklist,
		HourLabels:       &hourLabels,
		HourAlert:        hourAlert,
		HourDrop:         hourDrop,
		WeekLabels:       &weekLabels,
		WeekAlert:        weekAlert,
		WeekDrop:         weekDrop,
	}
}

func (g *generator) buckets(n int) (alert, drop []int64) {
	alert = make([]int64, n)
	drop = make([]int64, n)
	for i := 0; i < n; i++ {
		alert[i] = int64(g.rng.Intn(900))
		drop[i] = int64(g.rng.Intn(int(alert[i]/4) + 1))
	}
	return alert, drop
}
