package util

import (
	"fmt"
	"strings"
)

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

const (
	// InvalidSizeLabel is returned for negative sizes.
	InvalidSizeLabel = "[Invalid Size]"
	// MissingSizeLabel is returned when there is no size at all.
	MissingSizeLabel = "[Error]"
)

// FormatSize returns a human-readable size using 1024-based units with up to
// two decimals, e.g. 1536 -> "1.5 KB", 1024 -> "1 KB".
func FormatSize(bytes uint64) string {
	if bytes == 0 {
		return "0 B"
	}

	i := 0
	v := float64(bytes)
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}

	s := fmt.Sprintf("%.2f", v)
	switch {
	case strings.HasSuffix(s, ".00"):
		s = s[:len(s)-3]
	case strings.HasSuffix(s, "0"):
		s = s[:len(s)-1]
	}
	return s + " " + sizeUnits[i]
}

// FormatSignedSize is FormatSize for signed input; negative values yield
// InvalidSizeLabel.
func FormatSignedSize(bytes int64) string {
	if bytes < 0 {
		return InvalidSizeLabel
	}
	return FormatSize(uint64(bytes))
}

// FormatOptionalSize is FormatSize for an optional size; nil yields
// MissingSizeLabel.
func FormatOptionalSize(bytes *uint64) string {
	if bytes == nil {
		return MissingSizeLabel
	}
	return FormatSize(*bytes)
}

// FormatCount returns a human-readable count string.
func FormatCount(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1_000_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	if n < 1_000_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
}

// Percent returns the percentage of part relative to total.
func Percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// TruncateString truncates a string to maxLen runes, adding "..." if needed.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
