// Package search ranks list items for the jump box and proposes titles
// when a filter matches nothing.
package search

import (
	"slices"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Result is an item matched by the jump box
type Result struct {
	Item           domain.Item
	MatchedIndexes []int // byte offsets in the lowercased title, for highlighting
	Score          int   // higher is better
}

// titleIndex implements fuzzy.Source over lowercased titles
type titleIndex struct {
	items []domain.Item
	lower []string
}

func newTitleIndex(items []domain.Item) *titleIndex {
	idx := &titleIndex{items: items, lower: make([]string, len(items))}
	for i, it := range items {
		idx.lower[i] = strings.ToLower(it.Title)
	}
	return idx
}

func (t *titleIndex) String(i int) string { return t.lower[i] }

func (t *titleIndex) Len() int { return len(t.items) }

// Jump returns items whose title fuzzily matches query, best first.
// limit <= 0 means no limit.
func Jump(query string, items []domain.Item, limit int) []Result {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 {
		return nil
	}

	idx := newTitleIndex(items)
	matches := fuzzy.FindFrom(strings.ToLower(query), idx)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Item:           items[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// Suggest returns up to n distinct titles close to query. Titles that
// contain query's letters in order rank first; the rest must be within a
// small edit distance of the whole title or one of its words.
func Suggest(query string, items []domain.Item, n int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || n <= 0 {
		return nil
	}

	type candidate struct {
		title    string
		distance int
	}

	seen := make(map[string]bool)
	var candidates []candidate
	maxTypos := allowedTypos(len([]rune(query)))

	for _, it := range items {
		title := it.Title
		lower := strings.ToLower(title)
		if title == "" || seen[lower] {
			continue
		}

		distance := -1
		if d := lfuzzy.RankMatchFold(query, title); d >= 0 {
			distance = d
		} else if maxTypos > 0 {
			best := lfuzzy.LevenshteinDistance(query, lower)
			for _, word := range strings.Fields(lower) {
				best = min(best, lfuzzy.LevenshteinDistance(query, word))
			}
			if best <= maxTypos {
				// rank typo matches after every in-order match
				distance = 1000 + best
			}
		}
		if distance < 0 {
			continue
		}

		seen[lower] = true
		candidates = append(candidates, candidate{title: title, distance: distance})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if a.distance != b.distance {
			return a.distance - b.distance
		}
		return strings.Compare(strings.ToLower(a.title), strings.ToLower(b.title))
	})

	out := make([]string, 0, min(n, len(candidates)))
	for _, c := range candidates[:min(n, len(candidates))] {
		out = append(out, c.title)
	}
	return out
}

// allowedTypos returns the edit distance tolerated for a query length
func allowedTypos(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}
