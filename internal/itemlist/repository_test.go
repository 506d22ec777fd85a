package itemlist

import (
	"encoding/json"
	"testing"

	"github.com/mmcdole/watchlist/internal/domain"
)

func TestDecodeItem_NumericShapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *int
	}{
		{"int", 3, domain.IntPtr(3)},
		{"int64", int64(4), domain.IntPtr(4)},
		{"float64", float64(5), domain.IntPtr(5)},
		{"json.Number", json.Number("6"), domain.IntPtr(6)},
		{"string", "7", domain.IntPtr(7)},
		{"nil", nil, nil},
		{"garbage", "x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := DecodeItem(domain.Document{ID: "1", Fields: map[string]any{"season": tt.value}})
			if !equalIntPtr(it.Season, tt.want) {
				t.Errorf("Season = %v, want %v", it.Season, tt.want)
			}
		})
	}
}

func TestDecodeItem_LegacyValues(t *testing.T) {
	it := DecodeItem(domain.Document{ID: "x", Fields: map[string]any{
		"title":  "Mononoke",
		"status": "planToWatch",
		"genre":  "映画",
		"rating": float64(8),
		"userId": "u1",
	}})

	if it.Status != domain.StatusPlanToWatch {
		t.Errorf("Status = %q, want plan_to_watch", it.Status)
	}
	if it.Genre != domain.GenreFilm {
		t.Errorf("Genre = %q, want film", it.Genre)
	}
	if it.Rating != domain.MaxRating {
		t.Errorf("Rating = %d, want clamped to %d", it.Rating, domain.MaxRating)
	}
	if it.ID != "x" || it.UserID != "u1" {
		t.Errorf("ID/UserID = %q/%q", it.ID, it.UserID)
	}
}

func TestEncodeItem_RoundTrip(t *testing.T) {
	in := domain.Item{
		ID:           "id-1",
		Title:        "Mushishi",
		Status:       domain.StatusWatching,
		Rating:       4,
		Comment:      "slow and good",
		TotalEpisode: domain.IntPtr(26),
		Genre:        domain.GenreAnime,
		Favorite:     true,
		UserID:       "u1",
	}

	// Simulate a JSON-backed store: numbers come back as float64
	raw, err := json.Marshal(EncodeItem(in))
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	if _, ok := fields["id"]; ok {
		t.Error("encoded document carries an id field")
	}

	out := DecodeItem(domain.Document{ID: "id-1", Fields: fields})
	if out.Title != in.Title || out.Status != in.Status || out.Rating != in.Rating ||
		out.Comment != in.Comment || !equalIntPtr(out.TotalEpisode, in.TotalEpisode) ||
		out.CurrentEpisode != nil || out.Favorite != in.Favorite || out.UserID != in.UserID {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestEncodePatch_OnlyTouchedFields(t *testing.T) {
	fav := true
	got := EncodePatch(domain.ItemPatch{Favorite: &fav, Season: domain.ClearInt()})
	if len(got) != 2 {
		t.Fatalf("EncodePatch() = %v, want 2 fields", got)
	}
	if v, ok := got["season"]; !ok || v != nil {
		t.Errorf("season = %v (present %v), want explicit nil", v, ok)
	}
	if got["favorite"] != true {
		t.Errorf("favorite = %v, want true", got["favorite"])
	}
}
