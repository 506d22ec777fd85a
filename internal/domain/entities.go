package domain

import "fmt"

// Status is the watch state of an item. Any status can move to any other.
type Status string

const (
	StatusPlanToWatch Status = "plan_to_watch"
	StatusWatching    Status = "watching"
	StatusCompleted   Status = "completed"
	StatusDropped     Status = "dropped"
)

// Statuses lists every status in tab order
var Statuses = []Status{StatusPlanToWatch, StatusWatching, StatusCompleted, StatusDropped}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPlanToWatch, StatusWatching, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// Label returns the display name
func (s Status) Label() string {
	switch s {
	case StatusPlanToWatch:
		return "Plan to watch"
	case StatusWatching:
		return "Watching"
	case StatusCompleted:
		return "Completed"
	case StatusDropped:
		return "Dropped"
	default:
		return string(s)
	}
}

// Next returns the following status, wrapping around
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusPlanToWatch
}

// ParseStatus normalizes stored status values, including the camelCase
// spelling written by older clients.
func ParseStatus(v string) (Status, bool) {
	switch v {
	case "planToWatch":
		return StatusPlanToWatch, true
	}
	s := Status(v)
	return s, s.Valid()
}

// Genre is the kind of title being tracked
type Genre string

const (
	GenreAnime Genre = "anime"
	GenreDrama Genre = "drama"
	GenreFilm  Genre = "film"
)

// Genres lists every genre in tab order
var Genres = []Genre{GenreAnime, GenreDrama, GenreFilm}

// Valid reports whether g is one of the known genres
func (g Genre) Valid() bool {
	switch g {
	case GenreAnime, GenreDrama, GenreFilm:
		return true
	}
	return false
}

// Label returns the display name
func (g Genre) Label() string {
	switch g {
	case GenreAnime:
		return "Anime"
	case GenreDrama:
		return "Drama"
	case GenreFilm:
		return "Film"
	default:
		return string(g)
	}
}

// Next returns the following genre, wrapping around
func (g Genre) Next() Genre {
	for i, gn := range Genres {
		if gn == g {
			return Genres[(i+1)%len(Genres)]
		}
	}
	return GenreAnime
}

// ParseGenre normalizes stored genre values. Empty means anime.
func ParseGenre(v string) (Genre, bool) {
	switch v {
	case "":
		return GenreAnime, true
	case "アニメ":
		return GenreAnime, true
	case "ドラマ":
		return GenreDrama, true
	case "映画":
		return GenreFilm, true
	}
	g := Genre(v)
	return g, g.Valid()
}

// MaxRating is the highest star rating. Zero means unrated.
const MaxRating = 5

// Item is one tracked title owned by a single user.
type Item struct {
	ID             string // Document ID, empty until persisted
	Title          string
	Status         Status
	Rating         int
	Comment        string
	CurrentEpisode *int
	TotalEpisode   *int
	Season         *int
	MovieOrder     *int
	Genre          Genre
	Favorite       bool
	IsNew          bool   // Created this session and not yet renamed
	ImageURL       string // External URL or data: payload
	UserID         string
}

// EffectiveGenre returns the genre, defaulting to anime when unset
func (it Item) EffectiveGenre() Genre {
	if it.Genre == "" {
		return GenreAnime
	}
	return it.Genre
}

// Progress returns the progress fields that matter for the item's genre
func (it Item) Progress() Progress {
	if it.EffectiveGenre() == GenreFilm {
		return Sequential{Order: it.MovieOrder}
	}
	return Episodic{Season: it.Season, Current: it.CurrentEpisode, Total: it.TotalEpisode}
}

// Clone returns a deep copy
func (it Item) Clone() Item {
	c := it
	c.CurrentEpisode = cloneInt(it.CurrentEpisode)
	c.TotalEpisode = cloneInt(it.TotalEpisode)
	c.Season = cloneInt(it.Season)
	c.MovieOrder = cloneInt(it.MovieOrder)
	return c
}

// Stars renders the rating as filled and empty stars
func (it Item) Stars() string {
	s := ""
	for i := 1; i <= MaxRating; i++ {
		if it.Rating >= i {
			s += "★"
		} else {
			s += "☆"
		}
	}
	return s
}

// Progress is either Episodic (anime, drama) or Sequential (film).
type Progress interface {
	// Describe returns a short human readable summary such as "S2 5/12"
	Describe() string
	isProgress()
}

// Episodic tracks season and episode counts
type Episodic struct {
	Season  *int
	Current *int
	Total   *int
}

func (Episodic) isProgress() {}

func (e Episodic) Describe() string {
	s := ""
	if e.Season != nil {
		s = fmt.Sprintf("S%d ", *e.Season)
	}
	return s + fmt.Sprintf("%s/%s", intOrDash(e.Current), intOrDash(e.Total))
}

// Sequential tracks the position of a film within a series
type Sequential struct {
	Order *int
}

func (Sequential) isProgress() {}

func (s Sequential) Describe() string {
	return "#" + intOrDash(s.Order)
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}
