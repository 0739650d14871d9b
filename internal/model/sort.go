package model

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// SortField defines what to sort by.
type SortField int

const (
	SortBySize SortField = iota
	SortByName
)

// SortOrder defines ascending or descending.
type SortOrder int

const (
	SortDesc SortOrder = iota
	SortAsc
)

// SortConfig holds sort preferences.
type SortConfig struct {
	Field SortField
	Order SortOrder
}

// DefaultSort returns the report order: size descending, unsized entries last.
func DefaultSort() SortConfig {
	return SortConfig{
		Field: SortBySize,
		Order: SortDesc,
	}
}

// ParseSortField maps a flag value to a SortField.
func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(s) {
	case "size":
		return SortBySize, true
	case "name":
		return SortByName, true
	default:
		return SortBySize, false
	}
}

// SortEntries sorts entries in place according to cfg.
//
// When sorting by size, entries without a size are treated as -1 and so end
// up after every sized entry in descending order. Ties fall back to natural
// case-insensitive name order regardless of cfg.Order.
func SortEntries(entries []DirEntryReport, cfg SortConfig) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		switch cfg.Field {
		case SortBySize:
			sa, sb := a.SizeOrNegative(), b.SizeOrNegative()
			if sa != sb {
				if cfg.Order == SortDesc {
					return sa > sb
				}
				return sa < sb
			}
			return nameLess(a.Name, b.Name)
		case SortByName:
			if cfg.Order == SortDesc {
				a, b = b, a
			}
			return nameLess(a.Name, b.Name)
		default:
			return a.SizeOrNegative() > b.SizeOrNegative()
		}
	})
}

func nameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return a < b
	}
	return natural.Less(la, lb)
}
