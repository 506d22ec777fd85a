package itemlist

import (
	"testing"

	"github.com/mmcdole/watchlist/internal/domain"
)

func TestDrafts_ValuePrefersPending(t *testing.T) {
	d := NewDrafts()
	it := domain.Item{ID: "1", Title: "Stored", TotalEpisode: domain.IntPtr(24)}

	if got := d.Value(it, FieldTitle); got != "Stored" {
		t.Errorf("Value(title) = %q, want Stored", got)
	}
	if got := d.Value(it, FieldTotalEpisode); got != "24" {
		t.Errorf("Value(totalEpisode) = %q, want 24", got)
	}
	if got := d.Value(it, FieldSeason); got != "" {
		t.Errorf("Value(season) = %q, want empty for unset", got)
	}

	d.Set("1", FieldTitle, "Typing")
	if got := d.Value(it, FieldTitle); got != "Typing" {
		t.Errorf("Value(title) = %q, want Typing", got)
	}

	d.Discard("1", FieldTitle)
	if got := d.Value(it, FieldTitle); got != "Stored" {
		t.Errorf("Value(title) after Discard = %q, want Stored", got)
	}
}

func TestDrafts_Commit(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		text    string
		wantErr bool
		check   func(t *testing.T, p domain.ItemPatch)
	}{
		{
			name: "title clears new flag", field: FieldTitle, text: "Mushishi",
			check: func(t *testing.T, p domain.ItemPatch) {
				if p.Title == nil || *p.Title != "Mushishi" || p.IsNew == nil || *p.IsNew {
					t.Errorf("patch = %+v", p)
				}
			},
		},
		{
			name: "comment", field: FieldComment, text: "rewatch s2",
			check: func(t *testing.T, p domain.ItemPatch) {
				if p.Comment == nil || *p.Comment != "rewatch s2" || p.IsNew != nil {
					t.Errorf("patch = %+v", p)
				}
			},
		},
		{
			name: "numeric", field: FieldCurrentEpisode, text: " 7 ",
			check: func(t *testing.T, p domain.ItemPatch) {
				if p.CurrentEpisode == nil || !p.CurrentEpisode.Valid || p.CurrentEpisode.Int != 7 {
					t.Errorf("patch = %+v", p.CurrentEpisode)
				}
			},
		},
		{
			name: "empty numeric unsets", field: FieldSeason, text: "",
			check: func(t *testing.T, p domain.ItemPatch) {
				if p.Season == nil || p.Season.Valid {
					t.Errorf("patch = %+v", p.Season)
				}
			},
		},
		{name: "bad numeric", field: FieldMovieOrder, text: "two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDrafts()
			d.Set("1", tt.field, tt.text)

			p, ok, err := d.Commit("1", tt.field)
			if !ok {
				t.Fatal("Commit() ok = false, want true")
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Commit() error = %v, wantErr %v", err, tt.wantErr)
			}
			_, pending := d.Get("1", tt.field)
			if pending != tt.wantErr {
				t.Errorf("draft pending = %v, want %v", pending, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, p)
			}
		})
	}
}

func TestDrafts_CommitWithoutPending(t *testing.T) {
	d := NewDrafts()
	if _, ok, err := d.Commit("1", FieldTitle); ok || err != nil {
		t.Errorf("Commit() = ok %v, err %v; want false, nil", ok, err)
	}
}
