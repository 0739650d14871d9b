package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/duweb/internal/model"
	"github.com/sadopc/duweb/internal/util"
)

// Table prints a scan result as one row per entry:
//
//	 45.2% [━━━━━━━━──────] photos/              1.2 GB
type Table struct {
	Theme    Theme
	Layout   Layout
	ShowLogs bool
}

// NewTable builds a table writing styles for w at the given width. Colors
// are only emitted when w is a color-capable terminal.
func NewTable(w io.Writer, width int) *Table {
	return &Table{
		Theme:  DefaultTheme(lipgloss.NewRenderer(w)),
		Layout: Layout{Width: width},
	}
}

// Render writes the report for result to w.
func (t *Table) Render(w io.Writer, result *model.ScanResult) error {
	var b strings.Builder
	width := t.Layout.ContentWidth()

	b.WriteString(t.header(result, width))
	b.WriteByte('\n')

	if len(result.Results) == 0 {
		b.WriteString(t.Theme.LinkName.Render("  (empty directory)"))
		b.WriteByte('\n')
	}
	barWidth, nameWidth := t.Layout.BarWidth(), t.Layout.NameWidth()
	for _, e := range result.Results {
		b.WriteString(t.row(e, result.TotalSize, barWidth, nameWidth))
		b.WriteByte('\n')
	}

	b.WriteString(t.footer(result))
	b.WriteByte('\n')

	if t.ShowLogs && len(result.Logs) > 0 {
		b.WriteByte('\n')
		for _, line := range result.Logs {
			b.WriteString(t.logLine(line))
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Table) header(result *model.ScanResult, width int) string {
	total := util.FormatSize(result.TotalSize)
	path := ansi.Truncate(result.Path, max(width-len(total)-3, 8), "...")
	return t.Theme.HeaderStyle.Render(path) + "  " + t.Theme.SizeText.Render(total)
}

func (t *Table) row(e model.DirEntryReport, parentSize uint64, barWidth, nameWidth int) string {
	var size uint64
	if e.Size != nil {
		size = *e.Size
	}

	pct := util.Percent(size, parentSize)
	pctStr := fmt.Sprintf("%5.1f%%", pct)
	bar := t.Theme.BarGradient(barWidth, pct/100.0)

	name := e.Name
	suffix := ""
	switch {
	case e.Failed():
		suffix = " !"
	case e.Kind == model.KindSymlink:
		suffix = " ->"
	}
	if e.Kind == model.KindDirectory {
		name += "/"
	}
	name = util.TruncateString(name, max(nameWidth-len(suffix), 1))

	var nameStyled string
	switch e.Kind {
	case model.KindDirectory:
		nameStyled = t.Theme.DirName.Render(name)
	case model.KindSymlink:
		nameStyled = t.Theme.LinkName.Render(name)
	default:
		nameStyled = t.Theme.FileName.Render(name)
	}
	if suffix != "" {
		if e.Failed() {
			nameStyled += t.Theme.ErrorText.Render(suffix)
		} else {
			nameStyled += t.Theme.LinkName.Render(suffix)
		}
	}
	nameStyled = FullWidth(nameStyled, nameWidth)

	sizeStyled := t.Theme.SizeText.Width(sizeWidth).Render(e.SizeLabel())
	if e.Failed() {
		sizeStyled = t.Theme.ErrorText.Width(sizeWidth).Align(lipgloss.Right).Render(e.SizeLabel())
	}

	return fmt.Sprintf("%s [%s] %s %s",
		t.Theme.PercentText.Render(pctStr), bar, nameStyled, sizeStyled,
	)
}

func (t *Table) footer(result *model.ScanResult) string {
	parts := []string{
		humanize.Comma(int64(result.TotalItems)) + " items",
		util.FormatSize(result.TotalSize),
	}
	if result.ScanErrors > 0 {
		parts = append(parts, t.Theme.ErrorText.Render(humanize.Comma(int64(result.ScanErrors))+" errors"))
	} else {
		parts = append(parts, "0 errors")
	}
	if s := result.Stats; s.Mode != "" {
		walked := fmt.Sprintf("%s files, %s dirs in %s (%s",
			util.FormatCount(s.FilesVisited), util.FormatCount(s.DirsVisited),
			s.Elapsed.Round(time.Millisecond), s.Mode)
		if rate := s.ItemsPerSecond(); rate > 0 {
			walked += fmt.Sprintf(", %s items/s", util.FormatCount(int64(math.Round(rate))))
		}
		parts = append(parts, walked+")")
	}
	return t.Theme.FooterStyle.Render(strings.Join(parts, " | "))
}

func (t *Table) logLine(line string) string {
	switch {
	case strings.HasPrefix(line, "ERROR: "):
		return t.Theme.LogError.Render(line)
	case strings.HasPrefix(line, "WARN: "):
		return t.Theme.LogWarn.Render(line)
	default:
		return t.Theme.LogInfo.Render(line)
	}
}
