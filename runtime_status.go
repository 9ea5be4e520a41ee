package main

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// runtimeSampler formats one status line of process health. The status loop
// owns it and calls line serially.
type runtimeSampler struct {
	gc gcPauseWindow
}

func (s *runtimeSampler) line(mem *runtime.MemStats, goroutines int) string {
	p99, count, truncated := s.gc.snapshot(mem)
	text := fmt.Sprintf("Runtime: heap=%s goroutines=%d", humanize.Bytes(mem.HeapAlloc), goroutines)
	if count > 0 {
		text += fmt.Sprintf(" gc p99=%s over %d", p99.Round(time.Microsecond), count)
		if truncated {
			text += "+"
		}
	}
	return text
}

func (s *runtimeSampler) sample() string {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return s.line(&mem, runtime.NumGoroutine())
}

// gcPauseWindow tracks GC pauses between status ticks.
type gcPauseWindow struct {
	lastNumGC   uint32
	initialized bool
}

// snapshot returns the p99 pause for GCs since the previous call and how many
// pauses it considered. When more GCs ran than the runtime's pause ring holds,
// only the most recent ones count and truncated is true.
func (w *gcPauseWindow) snapshot(mem *runtime.MemStats) (p99 time.Duration, count int, truncated bool) {
	if mem == nil {
		return 0, 0, false
	}
	if !w.initialized {
		w.lastNumGC = mem.NumGC
		w.initialized = true
		return 0, 0, false
	}
	if mem.NumGC <= w.lastNumGC {
		return 0, 0, false
	}
	delta := int(mem.NumGC - w.lastNumGC)
	w.lastNumGC = mem.NumGC

	ringLen := len(mem.PauseNs)
	if delta > ringLen {
		delta = ringLen
		truncated = true
	}
	pauses := make([]uint64, 0, delta)
	for i := 0; i < delta; i++ {
		idx := (int(mem.NumGC) - 1 - i) % ringLen
		if idx < 0 {
			idx += ringLen
		}
		if v := mem.PauseNs[idx]; v > 0 {
			pauses = append(pauses, v)
		}
	}
	if len(pauses) == 0 {
		return 0, 0, truncated
	}
	sort.Slice(pauses, func(i, j int) bool { return pauses[i] < pauses[j] })
	return time.Duration(pauses[int(float64(len(pauses)-1)*0.99)]), len(pauses), truncated
}
