package dashboard

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const DefaultInterval = 5 * time.Second

// OverlapPolicy decides what a tick does while a previous cycle is running.
type OverlapPolicy string

const (
	// OverlapSkip drops the tick. Default.
	OverlapSkip OverlapPolicy = "skip"
	// OverlapQueue remembers one tick and runs it when the running cycle ends.
	OverlapQueue OverlapPolicy = "queue"
	// OverlapAllow starts a concurrent cycle; the last render to finish wins.
	OverlapAllow OverlapPolicy = "allow"
)

// ParseOverlapPolicy accepts skip, queue or allow (case-insensitive). Empty
// input selects OverlapSkip.
func ParseOverlapPolicy(raw string) (OverlapPolicy, error) {
	switch OverlapPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OverlapSkip:
		return OverlapSkip, nil
	case OverlapQueue:
		return OverlapQueue, nil
	case OverlapAllow:
		return OverlapAllow, nil
	default:
		return "", fmt.Errorf("unknown overlap policy %q (want skip, queue or allow)", raw)
	}
}

// Cycler runs one refresh cycle. *Refresher implements it.
type Cycler interface {
	Refresh(ctx context.Context) CycleResult
}

// Scheduler runs a cycle immediately and then once per interval until its
// context ends.
type Scheduler struct {
	cycler   Cycler
	interval time.Duration
	policy   OverlapPolicy
	observer Observer

	mu      sync.Mutex
	running int
	pending bool
	closed  bool
	wg      sync.WaitGroup
}

func NewScheduler(cycler Cycler, interval time.Duration, policy OverlapPolicy, observer Observer) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if policy == "" {
		policy = OverlapSkip
	}
	if observer == nil {
		observer = Observers(nil)
	}
	return &Scheduler{
		cycler:   cycler,
		interval: interval,
		policy:   policy,
		observer: observer,
	}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

func (s *Scheduler) Policy() OverlapPolicy { return s.policy }

// Running returns the number of cycles currently in flight.
func (s *Scheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run blocks until ctx is done, then waits for in-flight cycles to return.
func (s *Scheduler) Run(ctx context.Context) {
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			s.mu.Lock()
			s.closed = true
			s.pending = false
			s.mu.Unlock()
			s.wg.Wait()
			return
		}
	}
}

// Tick starts one cycle according to the overlap policy. It returns false
// when the tick was skipped or queued instead of started.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.running > 0 && s.policy != OverlapAllow {
		queued := s.policy == OverlapQueue
		if queued {
			s.pending = true
		}
		s.mu.Unlock()
		s.observer.TickSkipped(queued)
		return false
	}
	s.running++
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loop(ctx)
	return true
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		s.refresh(ctx)

		s.mu.Lock()
		if s.pending && !s.closed && ctx.Err() == nil {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.running--
		s.mu.Unlock()
		return
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Dashboard: refresh cycle panic: %v\n%s", r, debug.Stack())
		}
	}()
	s.cycler.Refresh(ctx)
}
