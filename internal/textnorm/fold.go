package textnorm

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// FoldKey returns the case-folded, trimmed form of s used for
// case-insensitive comparisons.
func FoldKey(s string) string {
	// A Caser holds state; build one per call so FoldKey is goroutine safe.
	return cases.Fold().String(strings.TrimSpace(s))
}

// DedupeFold trims every entry, drops empties and removes case-insensitive
// duplicates, keeping the first spelling and the original order.
func DedupeFold(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := FoldKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortFold dedupes like DedupeFold and sorts case-insensitively.
func SortFold(list []string) []string {
	out := DedupeFold(list)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := FoldKey(out[i]), FoldKey(out[j])
		if ki == kj {
			return out[i] < out[j]
		}
		return ki < kj
	})
	return out
}
