package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme holds the styles used to print reports.
type Theme struct {
	// Base colors
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color

	// Text
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color

	// Gradient colors for bars
	GradientStart lipgloss.Color
	GradientEnd   lipgloss.Color

	// Styles
	HeaderStyle lipgloss.Style
	DirName     lipgloss.Style
	FileName    lipgloss.Style
	LinkName    lipgloss.Style
	SizeText    lipgloss.Style
	PercentText lipgloss.Style
	ErrorText   lipgloss.Style
	FooterStyle lipgloss.Style
	LogInfo     lipgloss.Style
	LogWarn     lipgloss.Style
	LogError    lipgloss.Style

	renderer *lipgloss.Renderer
}

// DefaultTheme returns the default dark theme bound to r. The renderer decides
// whether colors are emitted at all, so output to a pipe stays plain.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Primary: lipgloss.Color("#7B2FBE"),
		Accent:  lipgloss.Color("#61AFEF"),
		Error:   lipgloss.Color("#E06C75"),
		Warning: lipgloss.Color("#E5C07B"),
		Success: lipgloss.Color("#98C379"),

		TextPrimary:   lipgloss.Color("#CDD6F4"),
		TextSecondary: lipgloss.Color("#BAC2DE"),
		TextMuted:     lipgloss.Color("#6C7086"),

		GradientStart: lipgloss.Color("#7B2FBE"),
		GradientEnd:   lipgloss.Color("#00D4AA"),

		renderer: r,
	}

	t.HeaderStyle = r.NewStyle().
		Bold(true).
		Foreground(t.TextPrimary)

	t.DirName = r.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	t.FileName = r.NewStyle().
		Foreground(t.TextSecondary)

	t.LinkName = r.NewStyle().
		Foreground(t.TextMuted).
		Italic(true)

	t.SizeText = r.NewStyle().
		Foreground(t.TextMuted).
		Align(lipgloss.Right)

	t.PercentText = r.NewStyle().
		Foreground(t.TextMuted).
		Width(6).
		Align(lipgloss.Right)

	t.ErrorText = r.NewStyle().
		Foreground(t.Error)

	t.FooterStyle = r.NewStyle().
		Foreground(t.TextSecondary)

	t.LogInfo = r.NewStyle().Foreground(t.TextMuted)
	t.LogWarn = r.NewStyle().Foreground(t.Warning)
	t.LogError = r.NewStyle().Foreground(t.Error).Bold(true)

	return t
}

// GradientColor returns a color interpolated between gradient start and end.
func (t Theme) GradientColor(ratio float64) lipgloss.Color {
	if ratio <= 0 {
		return t.GradientStart
	}
	if ratio >= 1 {
		return t.GradientEnd
	}

	c1, _ := colorful.Hex(string(t.GradientStart))
	c2, _ := colorful.Hex(string(t.GradientEnd))
	return lipgloss.Color(c1.BlendLab(c2, ratio).Hex())
}

// BarGradient renders a per-character gradient bar of the given width with
// ratio of it filled.
func (t Theme) BarGradient(width int, ratio float64) string {
	if width <= 0 {
		return ""
	}
	filled := int(ratio * float64(width))
	filled = min(max(filled, 0), width)

	var buf strings.Builder
	for i := 0; i < filled; i++ {
		color := t.GradientColor(float64(i) / float64(max(width-1, 1)))
		buf.WriteString(t.renderer.NewStyle().Foreground(color).Render("━"))
	}
	if filled < width {
		buf.WriteString(t.renderer.NewStyle().Foreground(t.TextMuted).Render(strings.Repeat("─", width-filled)))
	}
	return buf.String()
}
