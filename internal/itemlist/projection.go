package itemlist

import (
	"slices"
	"strings"

	"github.com/mmcdole/watchlist/internal/domain"
	"golang.org/x/text/cases"
)

// Project computes the visible list: filter by status, genre, favorite and
// title substring, then order new items last and everything else by
// case-folded title. The sort is stable so equal titles keep input order.
// The input slice is not modified.
func Project(items []domain.Item, f domain.Filters) []domain.Item {
	fold := cases.Fold()
	needle := fold.String(f.Search)

	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if !f.AllStatuses() && it.Status != f.Status {
			continue
		}
		if !f.AllGenres() && it.EffectiveGenre() != f.Genre {
			continue
		}
		if f.FavoriteOnly && !it.Favorite {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(it.Title), needle) {
			continue
		}
		out = append(out, it)
	}

	keys := make(map[string]string, len(out))
	for _, it := range out {
		if _, ok := keys[it.Title]; !ok {
			keys[it.Title] = fold.String(it.Title)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.Item) int {
		if a.IsNew != b.IsNew {
			if a.IsNew {
				return 1
			}
			return -1
		}
		return strings.Compare(keys[a.Title], keys[b.Title])
	})
	return out
}
