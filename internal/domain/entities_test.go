package domain

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   Status
		wantOK bool
	}{
		{"plan_to_watch", StatusPlanToWatch, true},
		{"planToWatch", StatusPlanToWatch, true},
		{"watching", StatusWatching, true},
		{"completed", StatusCompleted, true},
		{"dropped", StatusDropped, true},
		{"on_hold", Status("on_hold"), false},
		{"", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseGenre(t *testing.T) {
	tests := []struct {
		in     string
		want   Genre
		wantOK bool
	}{
		{"", GenreAnime, true},
		{"anime", GenreAnime, true},
		{"drama", GenreDrama, true},
		{"film", GenreFilm, true},
		{"ドラマ", GenreDrama, true},
		{"podcast", Genre("podcast"), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseGenre(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseGenre(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStatus_NextCycles(t *testing.T) {
	s := StatusPlanToWatch
	for range Statuses {
		s = s.Next()
	}
	if s != StatusPlanToWatch {
		t.Errorf("cycling through all statuses ended at %q", s)
	}
}

func TestItem_Progress(t *testing.T) {
	film := Item{Genre: GenreFilm, MovieOrder: IntPtr(2), TotalEpisode: IntPtr(12)}
	if p, ok := film.Progress().(Sequential); !ok || *p.Order != 2 {
		t.Errorf("film Progress() = %#v, want Sequential{2}", film.Progress())
	}
	if got := film.Progress().Describe(); got != "#2" {
		t.Errorf("Describe() = %q, want #2", got)
	}

	show := Item{Season: IntPtr(2), CurrentEpisode: IntPtr(5)}
	if _, ok := show.Progress().(Episodic); !ok {
		t.Errorf("unset genre Progress() = %#v, want Episodic", show.Progress())
	}
	if got := show.Progress().Describe(); got != "S2 5/-" {
		t.Errorf("Describe() = %q, want S2 5/-", got)
	}
}

func TestItemPatch_ApplyTo(t *testing.T) {
	it := Item{Title: "a", Season: IntPtr(1), Rating: 2}
	title := "b"
	ItemPatch{Title: &title, Season: ClearInt(), TotalEpisode: SetInt(10)}.ApplyTo(&it)

	if it.Title != "b" || it.Season != nil || it.TotalEpisode == nil || *it.TotalEpisode != 10 || it.Rating != 2 {
		t.Errorf("ApplyTo() = %+v", it)
	}
}

func TestItem_CloneIsDeep(t *testing.T) {
	it := Item{Season: IntPtr(1)}
	c := it.Clone()
	*c.Season = 9
	if *it.Season != 1 {
		t.Error("Clone() shares pointer fields")
	}
}
