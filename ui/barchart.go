package ui

import (
	"strconv"

	"snortdash/dashboard"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

// Each bucket occupies one text row. The upper half of a cell carries the
// alert bar and the lower half the drop bar, which keeps the two series of a
// bucket adjacent the way a grouped bar chart does.
const (
	runeUpper = '▀'
	runeLower = '▄'
	runeFull  = '█'
)

// BarChart draws a horizontal grouped bar chart from a dashboard.ChartSpec.
// The spec is fixed for the lifetime of the primitive; a new render creates a
// new BarChart.
type BarChart struct {
	*tview.Box
	spec  dashboard.ChartSpec
	color bool
	hover int
}

func NewBarChart(spec dashboard.ChartSpec, color bool) *BarChart {
	return &BarChart{
		Box:   tview.NewBox(),
		spec:  spec,
		color: color,
		hover: -1,
	}
}

func (c *BarChart) Spec() dashboard.ChartSpec {
	return c.spec
}

type barRow struct {
	Label      string
	Alert      int64
	Drop       int64
	AlertCells int
	DropCells  int
}

type axisTick struct {
	Offset int
	Text   string
}

type chartLayout struct {
	LabelWidth int
	BarX       int
	BarWidth   int
	Rows       []barRow
	Ticks      []axisTick
}

// layoutChart computes bar lengths and tick positions for a drawing area of
// the given width. Labels are never skipped; long labels are cut to a third
// of the width.
func layoutChart(spec dashboard.ChartSpec, width int) chartLayout {
	var l chartLayout
	if width <= 0 {
		return l
	}
	for _, label := range spec.Labels {
		if w := runewidth.StringWidth(label); w > l.LabelWidth {
			l.LabelWidth = w
		}
	}
	if limit := width / 3; l.LabelWidth > limit {
		l.LabelWidth = limit
	}
	if l.LabelWidth > 0 {
		l.BarX = l.LabelWidth + 1
	}
	l.BarWidth = width - l.BarX
	if l.BarWidth < 1 {
		l.BarWidth = 1
	}

	var alert, drop dashboard.Series
	if len(spec.Series) > 0 {
		alert = spec.Series[0]
	}
	if len(spec.Series) > 1 {
		drop = spec.Series[1]
	}
	l.Rows = make([]barRow, len(spec.Labels))
	for i, label := range spec.Labels {
		row := barRow{
			Label: runewidth.Truncate(label, l.LabelWidth, ""),
			Alert: valueAt(alert.Values, i),
			Drop:  valueAt(drop.Values, i),
		}
		row.AlertCells = scaleCells(spec.ValueAxis, row.Alert, l.BarWidth)
		row.DropCells = scaleCells(spec.ValueAxis, row.Drop, l.BarWidth)
		l.Rows[i] = row
	}

	lastEnd := -1
	for _, tick := range spec.ValueAxis.Ticks() {
		text := strconv.FormatInt(tick, 10)
		start := scaleCells(spec.ValueAxis, tick, l.BarWidth)
		if start+len(text) > l.BarWidth {
			start = l.BarWidth - len(text)
		}
		if start <= lastEnd || start < 0 {
			continue
		}
		l.Ticks = append(l.Ticks, axisTick{Offset: start, Text: text})
		lastEnd = start + len(text)
	}
	return l
}

// scaleCells maps v onto [0, width] cells, rounding to nearest. Values above
// the axis maximum are clipped; any positive value gets at least one cell.
func scaleCells(axis dashboard.ValueAxis, v int64, width int) int {
	span := axis.Max - axis.Min
	if span <= 0 || width <= 0 {
		return 0
	}
	v = axis.Clamp(v)
	cells := int(((v-axis.Min)*int64(width)*2 + span) / (2 * span))
	if cells == 0 && v > axis.Min {
		cells = 1
	}
	return cells
}

func valueAt(values []int64, i int) int64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	return values[i]
}

func (c *BarChart) Draw(screen tcell.Screen) {
	c.Box.DrawForSubclass(screen, c)
	x, y, width, height := c.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}
	layout := layoutChart(c.spec, width)
	base := tcell.StyleDefault.Background(c.GetBackgroundColor())
	alertStyle, dropStyle := base, base
	if c.color && len(c.spec.Series) > 1 {
		alertStyle = base.Foreground(tcellColor(c.spec.Series[0].Color))
		dropStyle = base.Foreground(tcellColor(c.spec.Series[1].Color))
	}

	// Legend (top) with the hover tooltip on the right.
	col := x
	for i, series := range c.spec.Series {
		style, glyph := alertStyle, runeUpper
		if i == 1 {
			style, glyph = dropStyle, runeLower
		}
		col += drawText(screen, col, y, x+width-col, string(glyph)+" ", style)
		col += drawText(screen, col, y, x+width-col, series.Label+"  ", base)
	}
	if tip := c.Tooltip(); tip != "" {
		tipWidth := runewidth.StringWidth(tip)
		start := x + width - tipWidth
		if start < col {
			start = col
		}
		drawText(screen, start, y, x+width-start, tip, base.Reverse(true))
	}

	rowsTop := y + 1
	available := height - 2
	if available < 0 {
		available = 0
	}
	shown := len(layout.Rows)
	if shown > available {
		shown = available
	}
	for i := 0; i < shown; i++ {
		row := layout.Rows[i]
		ry := rowsTop + i
		labelStyle := base
		if i == c.hover {
			labelStyle = base.Reverse(true)
		}
		pad := layout.LabelWidth - runewidth.StringWidth(row.Label)
		drawText(screen, x+pad, ry, layout.LabelWidth, row.Label, labelStyle)
		for cx := 0; cx < layout.BarWidth; cx++ {
			upper := cx < row.AlertCells
			lower := cx < row.DropCells
			if !upper && !lower {
				continue
			}
			screen.SetContent(x+layout.BarX+cx, ry, c.cellRune(upper, lower), nil, c.cellStyle(upper, lower, base, alertStyle, dropStyle))
		}
	}

	axisY := rowsTop + shown
	if axisY < y+height {
		for _, tick := range layout.Ticks {
			drawText(screen, x+layout.BarX+tick.Offset, axisY, len(tick.Text), tick.Text, base.Dim(true))
		}
	}
}

func (c *BarChart) cellRune(upper, lower bool) rune {
	switch {
	case upper && lower && !c.color:
		return runeFull
	case upper:
		return runeUpper
	default:
		return runeLower
	}
}

func (c *BarChart) cellStyle(upper, lower bool, base, alertStyle, dropStyle tcell.Style) tcell.Style {
	switch {
	case upper && lower && c.color:
		return alertStyle.Background(tcellColor(c.spec.Series[1].Color))
	case upper:
		return alertStyle
	case lower:
		return dropStyle
	default:
		return base
	}
}

// Tooltip returns "<label>  Alert: n  Drop: m" for the hovered bucket, or ""
// when nothing is hovered.
func (c *BarChart) Tooltip() string {
	if c.hover < 0 || c.hover >= len(c.spec.Labels) {
		return ""
	}
	tip := c.spec.Labels[c.hover]
	for _, series := range c.spec.Series {
		tip += "  " + series.Tooltip(c.hover)
	}
	return tip
}

// setHoverRow maps a screen row to a bucket index, clearing the hover when the
// row is outside the bars.
func (c *BarChart) setHoverRow(screenY int) {
	_, y, _, height := c.GetInnerRect()
	idx := screenY - (y + 1)
	if idx < 0 || idx >= len(c.spec.Labels) || idx >= height-2 {
		idx = -1
	}
	c.hover = idx
}

func (c *BarChart) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return c.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		if !c.InRect(event.Position()) {
			return false, nil
		}
		if action != tview.MouseMove {
			return false, nil
		}
		_, my := event.Position()
		c.setHoverRow(my)
		return true, nil
	})
}

func tcellColor(col dashboard.Color) tcell.Color {
	return tcell.NewRGBColor(int32(col.R), int32(col.G), int32(col.B))
}

// drawText prints s starting at (x, y), clipped to maxWidth columns, and
// returns the number of columns used.
func drawText(screen tcell.Screen, x, y, maxWidth int, s string, style tcell.Style) int {
	used := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if used+w > maxWidth {
			break
		}
		screen.SetContent(x+used, y, r, nil, style)
		used += w
	}
	return used
}
