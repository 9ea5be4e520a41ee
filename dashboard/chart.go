package dashboard

import (
	"fmt"
	"strconv"
)

// Color is an RGBA colour in the CSS rgba() convention (alpha in 0..1).
type Color struct {
	R, G, B uint8
	A       float64
}

// Hex returns the #rrggbb form, ignoring alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns the rgba() form used by browser charting libraries.
func (c Color) CSS() string {
	return "rgba(" + strconv.Itoa(int(c.R)) + ", " + strconv.Itoa(int(c.G)) + ", " +
		strconv.Itoa(int(c.B)) + ", " + strconv.FormatFloat(c.A, 'f', -1, 64) + ")"
}

var (
	AlertColor = Color{R: 255, G: 102, B: 0, A: 1}
	DropColor  = Color{R: 255, G: 0, B: 0, A: 1}
)

const (
	AlertSeriesLabel = "Alert"
	DropSeriesLabel  = "Drop"
)

// Series is one dataset of a grouped bar chart.
type Series struct {
	Label           string
	Values          []int64
	Color           Color
	BorderWidth     float64
	BorderRadius    int
	MaxBarThickness int
}

// Tooltip formats the hover text for bucket i as "<label>: <value>".
func (s Series) Tooltip(i int) string {
	var v int64
	if i >= 0 && i < len(s.Values) {
		v = s.Values[i]
	}
	return s.Label + ": " + strconv.FormatInt(v, 10)
}

// ValueAxis is the linear axis the bars grow along.
type ValueAxis struct {
	Min         int64
	Max         int64
	Step        int64
	BeginAtZero bool
}

// Ticks lists the tick values from Min to Max inclusive.
func (a ValueAxis) Ticks() []int64 {
	if a.Step <= 0 || a.Max < a.Min {
		return []int64{a.Min, a.Max}
	}
	ticks := make([]int64, 0, (a.Max-a.Min)/a.Step+1)
	for v := a.Min; v <= a.Max; v += a.Step {
		ticks = append(ticks, v)
	}
	return ticks
}

// Clamp limits v to the axis range.
func (a ValueAxis) Clamp(v int64) int64 {
	if v < a.Min {
		return a.Min
	}
	if v > a.Max {
		return a.Max
	}
	return v
}

// CategoryAxis carries the bucket labels.
type CategoryAxis struct {
	AutoSkip    bool
	MinRotation int
	MaxRotation int
	LineHeight  float64
	Offset      bool
}

type LegendPosition string

const LegendTop LegendPosition = "top"

// ChartSpec is everything a charting backend needs to draw one slot. It is the
// reproducible part of the rendering contract: two renderers given the same
// spec must show the same bars, ranges and labels.
type ChartSpec struct {
	Type       string
	IndexAxis  string
	Labels     []string
	Series     []Series
	ValueAxis  ValueAxis
	LabelAxis  CategoryAxis
	Legend     LegendPosition
	Responsive bool
}

// Horizontal reports whether bars grow along the x axis.
func (s ChartSpec) Horizontal() bool {
	return s.IndexAxis == "y"
}

// NewBarChartSpec builds the horizontal grouped bar chart used by both slots.
func NewBarChartSpec(labels []string, alert, drop []int64) ChartSpec {
	return ChartSpec{
		Type:      "bar",
		IndexAxis: "y",
		Labels:    labels,
		Series: []Series{
			newBarSeries(AlertSeriesLabel, alert, AlertColor),
			newBarSeries(DropSeriesLabel, drop, DropColor),
		},
		ValueAxis: ValueAxis{Min: 0, Max: 1000, Step: 100, BeginAtZero: true},
		LabelAxis: CategoryAxis{
			AutoSkip:    false,
			MinRotation: 0,
			MaxRotation: 0,
			LineHeight:  0.7,
			Offset:      true,
		},
		Legend:     LegendTop,
		Responsive: true,
	}
}

func newBarSeries(label string, values []int64, color Color) Series {
	return Series{
		Label:           label,
		Values:          values,
		Color:           color,
		BorderWidth:     1.5,
		BorderRadius:    6,
		MaxBarThickness: 18,
	}
}
