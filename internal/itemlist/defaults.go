package itemlist

import "github.com/mmcdole/watchlist/internal/domain"

// DefaultTitle is the placeholder title given to newly created items
const DefaultTitle = "New title"

// NewItem derives a fresh item from the active filters. Status and genre
// follow the selected tabs so the item shows up where the user is looking.
func NewItem(filters domain.Filters, userID string) domain.Item {
	status := domain.StatusPlanToWatch
	if !filters.AllStatuses() {
		status = filters.Status
	}
	genre := domain.GenreAnime
	if !filters.AllGenres() {
		genre = filters.Genre
	}

	it := domain.Item{
		Title:   DefaultTitle,
		Status:  status,
		Rating:  0,
		Comment: "",
		Genre:   genre,
		IsNew:   true,
		UserID:  userID,
	}
	if genre == domain.GenreFilm {
		it.MovieOrder = domain.IntPtr(1)
	}
	if status == domain.StatusCompleted {
		// Both start unset, so this only matters once a total is known
		it.CurrentEpisode = it.TotalEpisode
	}
	return it
}
