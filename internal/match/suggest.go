package match

import (
	"sort"
	"strings"
)

// DefaultSuggestThreshold is the minimum normalized similarity for a suggestion.
const DefaultSuggestThreshold = 0.6

// Suggest returns up to limit candidates similar to name, best first.
// Candidates are compared on their normalized form; ties keep candidate order.
func Suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name  string
		score float64
	}

	var hits []scored

	for _, c := range candidates {
		if c == name {
			continue
		}

		score := Similarity(Normalize(name), Normalize(c))
		if strings.EqualFold(name, c) {
			score = 1
		}

		if score >= DefaultSuggestThreshold {
			hits = append(hits, scored{name: c, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}

	return out
}
