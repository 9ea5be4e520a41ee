package ui

import (
	"sync"

	"snortdash/dashboard"

	"github.com/rivo/tview"
)

// chartSurface is one named chart slot on the page. Charts are mounted into
// a bordered container; the container is rebuilt from the mounted list on the
// next frame, so a destroy followed by a create within one frame never shows
// an empty or doubled slot.
type chartSurface struct {
	name      string
	container *tview.Flex
	scheduler *frameScheduler
	metrics   *Metrics
	color     bool

	mu      sync.Mutex
	mounted []*BarChart
}

func newChartSurface(name, title string, scheduler *frameScheduler, metrics *Metrics, color bool) *chartSurface {
	container := tview.NewFlex().SetDirection(tview.FlexRow)
	container.SetBorder(true)
	container.SetTitle(accentText(title)).SetTitleAlign(tview.AlignLeft)
	container.SetBorderColor(uiBorderColor)
	container.SetTitleColor(uiTitleColor)
	return &chartSurface{
		name:      name,
		container: container,
		scheduler: scheduler,
		metrics:   metrics,
		color:     color,
	}
}

func (s *chartSurface) NewChart(spec dashboard.ChartSpec) (dashboard.Chart, error) {
	chart := NewBarChart(spec, s.color)
	s.mu.Lock()
	s.mounted = append(s.mounted, chart)
	s.mu.Unlock()
	s.metrics.ChartMounted()
	s.scheduleSync()
	return &mountedChart{surface: s, chart: chart}, nil
}

// Mounted returns the number of charts currently attached to the surface.
func (s *chartSurface) Mounted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mounted)
}

func (s *chartSurface) current() *BarChart {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.mounted) == 0 {
		return nil
	}
	return s.mounted[len(s.mounted)-1]
}

func (s *chartSurface) unmount(chart *BarChart) {
	s.mu.Lock()
	removed := false
	for i, c := range s.mounted {
		if c == chart {
			s.mounted = append(s.mounted[:i], s.mounted[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.metrics.ChartUnmounted()
		s.scheduleSync()
	}
}

func (s *chartSurface) scheduleSync() {
	s.scheduler.Schedule("chart:"+s.name, s.sync)
}

// sync runs on the UI goroutine.
func (s *chartSurface) sync() {
	s.mu.Lock()
	charts := append([]*BarChart(nil), s.mounted...)
	s.mu.Unlock()
	s.container.Clear()
	for _, c := range charts {
		s.container.AddItem(c, 0, 1, false)
	}
}

type mountedChart struct {
	surface *chartSurface
	chart   *BarChart
	once    sync.Once
}

func (m *mountedChart) Destroy() {
	m.once.Do(func() {
		m.surface.unmount(m.chart)
	})
}
