package main

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TextMeasurer reports the rendered size of a node label before any
// positioning decision is made, so text wrapping affects layout. The layout
// engine only depends on this interface, never on a rendering surface.
type TextMeasurer interface {
	Measure(label string) Size
}

// Labels wrap at this many columns before the box grows vertically.
const labelWrapCols = 24

// One terminal cell in world units. The world space is pixel-like so the
// fit/zoom math stays independent of the cell grid.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// CellMeasurer sizes labels on the terminal cell grid using display widths,
// with a one-cell border and padding on each side to match how boxes are
// drawn.
type CellMeasurer struct {
	WrapCols int
}

func NewCellMeasurer() *CellMeasurer {
	return &CellMeasurer{WrapCols: labelWrapCols}
}

func (m *CellMeasurer) Measure(label string) Size {
	lines := wrapLabel(label, m.WrapCols)
	cols := 0
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > cols {
			cols = w
		}
	}
	if cols == 0 {
		cols = 1
	}
	// +4 columns: border plus one space of padding per side. +2 rows: border.
	return Size{
		W: float64(cols+4) * cellWidth,
		H: float64(len(lines)+2) * cellHeight,
	}
}

// wrapLabel word-wraps a label at maxCols display columns. Words longer than
// the limit are hard-broken rather than overflowing the box.
func wrapLabel(label string, maxCols int) []string {
	if maxCols < 1 {
		maxCols = 1
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return []string{""}
	}

	var lines []string
	for _, para := range strings.Split(label, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, word := range words {
			for runewidth.StringWidth(word) > maxCols {
				if cur != "" {
					lines = append(lines, cur)
					cur = ""
				}
				head := runewidth.Truncate(word, maxCols, "")
				if head == "" {
					// A single rune wider than maxCols cannot be split;
					// let it overflow instead of looping.
					break
				}
				lines = append(lines, head)
				word = strings.TrimPrefix(word, head)
			}
			if word == "" {
				continue
			}
			switch {
			case cur == "":
				cur = word
			case runewidth.StringWidth(cur)+1+runewidth.StringWidth(word) <= maxCols:
				cur += " " + word
			default:
				lines = append(lines, cur)
				cur = word
			}
		}
		if cur != "" {
			lines = append(lines, cur)
		}
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
