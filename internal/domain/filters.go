package domain

// Filters is the active view selection. Empty Status/Genre mean "all".
type Filters struct {
	Status       Status
	Genre        Genre
	FavoriteOnly bool
	Search       string
}

// AllStatuses reports whether the status filter is "all"
func (f Filters) AllStatuses() bool { return f.Status == "" }

// AllGenres reports whether the genre filter is "all"
func (f Filters) AllGenres() bool { return f.Genre == "" }
