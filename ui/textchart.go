package ui

import (
	"strings"

	"snortdash/dashboard"

	"github.com/mattn/go-runewidth"
)

// TextChartLines renders spec for line-oriented consoles: a legend row, one
// row per bucket and an axis row. With color set, bar runs carry [yellow] and
// [red] markup tags.
func TextChartLines(spec dashboard.ChartSpec, width int, color bool) []string {
	layout := layoutChart(spec, width)
	if width <= 0 {
		return nil
	}
	lines := make([]string, 0, len(layout.Rows)+2)

	var legend strings.Builder
	for i, series := range spec.Series {
		kind := cellAlert
		if i == 1 {
			kind = cellDrop
		}
		legend.WriteString(markCell(kind, color))
		legend.WriteString(" " + series.Label + "  ")
	}
	lines = append(lines, strings.TrimRight(legend.String(), " "))

	for _, row := range layout.Rows {
		var b strings.Builder
		if layout.LabelWidth > 0 {
			b.WriteString(strings.Repeat(" ", layout.LabelWidth-runewidth.StringWidth(row.Label)))
			b.WriteString(row.Label)
			b.WriteByte(' ')
		}
		run := cellNone
		for cx := 0; cx < layout.BarWidth; cx++ {
			kind := cellNone
			if cx < row.AlertCells {
				kind |= cellAlert
			}
			if cx < row.DropCells {
				kind |= cellDrop
			}
			if kind == cellNone {
				break
			}
			if color && kind != run {
				if run != cellNone {
					b.WriteString("[-]")
				}
				b.WriteString(cellTag(kind))
			}
			b.WriteRune(cellGlyph(kind))
			run = kind
		}
		if color && run != cellNone {
			b.WriteString("[-]")
		}
		lines = append(lines, b.String())
	}

	axis := []rune(strings.Repeat(" ", layout.BarX+layout.BarWidth))
	for _, tick := range layout.Ticks {
		copy(axis[layout.BarX+tick.Offset:], []rune(tick.Text))
	}
	lines = append(lines, strings.TrimRight(string(axis), " "))
	return lines
}

const (
	cellNone  = 0
	cellAlert = 1
	cellDrop  = 2
)

func cellGlyph(kind int) rune {
	switch kind {
	case cellAlert:
		return runeUpper
	case cellDrop:
		return runeLower
	default:
		return runeFull
	}
}

func cellTag(kind int) string {
	if kind == cellDrop {
		return "[red]"
	}
	return "[yellow]"
}

func markCell(kind int, color bool) string {
	if !color {
		return string(cellGlyph(kind))
	}
	return cellTag(kind) + string(cellGlyph(kind)) + "[-]"
}
