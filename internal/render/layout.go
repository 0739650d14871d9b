package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Layout sizes the columns of a report row for a terminal width.
//
// Row: pct(6) + " [" + bar + "] " + name + " " + size(sizeWidth)
type Layout struct {
	Width int
}

const (
	minWidth  = 40
	sizeWidth = 20
)

// ContentWidth returns the usable width.
func (l Layout) ContentWidth() int {
	if l.Width < minWidth {
		return minWidth
	}
	return l.Width
}

// BarWidth returns the width of the usage bar.
func (l Layout) BarWidth() int {
	bar := (l.ContentWidth() - l.rowOverhead()) / 3
	return min(max(bar, 5), 30)
}

// NameWidth returns the width available for entry names.
func (l Layout) NameWidth() int {
	return max(l.ContentWidth()-l.rowOverhead()-l.BarWidth(), 8)
}

func (l Layout) rowOverhead() int {
	return 6 + 2 + 2 + 1 + sizeWidth
}

// FullWidth pads a string with spaces to reach exactly the target visual width.
// If the string is already wider, it is returned as-is (no truncation).
func FullWidth(s string, width int) string {
	visLen := lipgloss.Width(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}
