// Package ranking selects the top N entries of a scored collection, keeping every
// entry that ties with the N-th score.
package ranking

import (
	"cmp"
	"slices"
)

type Entry[K cmp.Ordered] struct {
	Key   K
	Score int64
}

// TopN orders entries by score descending, then key ascending, and returns every
// entry whose score is at least the score at position N. With fewer than N entries
// all of them are returned. The input slice is not modified.
func TopN[K cmp.Ordered](entries []Entry[K], n int) []Entry[K] {
	if n <= 0 || len(entries) == 0 {
		return []Entry[K]{}
	}

	sorted := slices.Clone(entries)
	Sort(sorted)

	if len(sorted) <= n {
		return sorted
	}

	cutoff := sorted[n-1].Score
	end := n
	for end < len(sorted) && sorted[end].Score >= cutoff {
		end++
	}
	return sorted[:end]
}

// Sort orders entries in place by score descending, then key ascending.
func Sort[K cmp.Ordered](entries []Entry[K]) {
	slices.SortFunc(entries, func(a, b Entry[K]) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

// FromCounts turns a key to count map into entries.
func FromCounts[K cmp.Ordered](counts map[K]int64) []Entry[K] {
	out := make([]Entry[K], 0, len(counts))
	for k, v := range counts {
		out = append(out, Entry[K]{Key: k, Score: v})
	}
	return out
}
