package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/watchlist/internal/auth"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/session"
)

type fakeAuth struct {
	*auth.Notifier
}

func (f fakeAuth) SignIn(context.Context, string, string) (*domain.AuthResult, error) {
	return nil, errors.New("unused")
}
func (f fakeAuth) SignUp(context.Context, string, string) (*domain.AuthResult, error) {
	return nil, errors.New("unused")
}
func (f fakeAuth) SignOut(context.Context) error { f.Set(nil); return nil }
func (f fakeAuth) CurrentUser() *domain.AuthResult { return f.Current() }
func (f fakeAuth) OnAuthStateChange(fn domain.AuthStateFunc) func() {
	return f.Subscribe(fn)
}

type fakeRepo struct {
	mu      sync.Mutex
	items   []domain.Item
	updates int
	deletes []string
	nextID  int
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Item
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (r *fakeRepo) Create(context.Context, domain.Item) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return "created-" + string(rune('0'+r.nextID)), nil
}

func (r *fakeRepo) Update(context.Context, string, domain.ItemPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	return nil
}

type fakeOpener struct {
	opened []string
}

func (o *fakeOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// harness wires a model to a signed-in session over a fake repo
type harness struct {
	t      *testing.T
	model  Model
	repo   *fakeRepo
	auth   fakeAuth
	ctrl   *session.Controller
	opener *fakeOpener
}

func newHarness(t *testing.T, items ...domain.Item) *harness {
	t.Helper()
	repo := &fakeRepo{items: items}
	fa := fakeAuth{auth.NewNotifier(&domain.AuthResult{UserID: "u1"})}
	ctrl := session.NewController(fa, repo, testLogger())
	opener := &fakeOpener{}

	h := &harness{t: t, repo: repo, auth: fa, ctrl: ctrl, opener: opener}
	h.model = NewModel(ctrl, opener, []Link{{Name: "Site", URL: "https://example.com"}}, testLogger())

	var first session.Event
	ctrl.Start(context.Background(), func(e session.Event) { first = e })
	t.Cleanup(ctrl.Stop)

	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.send(SessionEventMsg{Event: first})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) keys(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.send(press(k))
	}
}

func (h *harness) item(id string) domain.Item {
	h.t.Helper()
	it, ok := h.model.items().Get(id)
	if !ok {
		h.t.Fatalf("item %s not found", id)
	}
	return it
}

func sampleItems() []domain.Item {
	return []domain.Item{
		{ID: "a", Title: "Alpha", Status: domain.StatusWatching, Genre: domain.GenreAnime, UserID: "u1",
			CurrentEpisode: domain.IntPtr(3), TotalEpisode: domain.IntPtr(12)},
		{ID: "b", Title: "Beta", Status: domain.StatusCompleted, Genre: domain.GenreFilm, UserID: "u1",
			MovieOrder: domain.IntPtr(1)},
		{ID: "z", Title: "Other user", Status: domain.StatusWatching, UserID: "u2"},
	}
}

func TestModel_SessionLoadsItems(t *testing.T) {
	h := newHarness(t, sampleItems()...)

	if got := h.model.List.Len(); got != 2 {
		t.Fatalf("List.Len() = %d, want 2", got)
	}
	if sel := h.model.List.Selected(); sel == nil || sel.ID != "a" {
		t.Errorf("Selected() = %+v, want Alpha", sel)
	}
}

func TestModel_QuickEdits(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		check func(t *testing.T, it domain.Item)
	}{
		{"rating", []string{"4"}, func(t *testing.T, it domain.Item) {
			if it.Rating != 4 {
				t.Errorf("Rating = %d, want 4", it.Rating)
			}
		}},
		{"clear rating", []string{"4", "0"}, func(t *testing.T, it domain.Item) {
			if it.Rating != 0 {
				t.Errorf("Rating = %d, want 0", it.Rating)
			}
		}},
		{"favorite", []string{"*"}, func(t *testing.T, it domain.Item) {
			if !it.Favorite {
				t.Error("Favorite not set")
			}
		}},
		{"next episode", []string{"+", "+"}, func(t *testing.T, it domain.Item) {
			if it.CurrentEpisode == nil || *it.CurrentEpisode != 5 {
				t.Errorf("CurrentEpisode = %v, want 5", it.CurrentEpisode)
			}
		}},
		{"previous episode", []string{"-"}, func(t *testing.T, it domain.Item) {
			if it.CurrentEpisode == nil || *it.CurrentEpisode != 2 {
				t.Errorf("CurrentEpisode = %v, want 2", it.CurrentEpisode)
			}
		}},
		{"status completes episodes", []string{"w"}, func(t *testing.T, it domain.Item) {
			if it.Status != domain.StatusCompleted {
				t.Errorf("Status = %s, want completed", it.Status)
			}
			if it.CurrentEpisode == nil || *it.CurrentEpisode != 12 {
				t.Errorf("CurrentEpisode = %v, want 12", it.CurrentEpisode)
			}
		}},
		{"genre to drama", []string{"t"}, func(t *testing.T, it domain.Item) {
			if it.Genre != domain.GenreDrama {
				t.Errorf("Genre = %s, want drama", it.Genre)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, sampleItems()...)
			h.keys(tt.keys...)
			tt.check(t, h.item("a"))
		})
	}
}

func TestModel_EditCommitAndDiscard(t *testing.T) {
	h := newHarness(t, sampleItems()...)
	drafts := h.model.items().Drafts()

	h.keys("c", "so far so good")
	if h.model.State != StateEditing {
		t.Fatalf("State = %v, want editing", h.model.State)
	}
	if got, ok := drafts.Get("a", "comment"); !ok || got != "so far so good" {
		t.Errorf("draft = %q, %v", got, ok)
	}
	if h.item("a").Comment != "" {
		t.Error("comment written before commit")
	}

	h.keys("esc")
	if drafts.Len() != 0 || h.item("a").Comment != "" {
		t.Error("esc did not discard the draft")
	}

	h.keys("c", "great", "enter")
	if h.model.State != StateBrowsing {
		t.Errorf("State = %v after enter, want browsing", h.model.State)
	}
	if got := h.item("a").Comment; got != "great" {
		t.Errorf("Comment = %q, want great", got)
	}
	if drafts.Len() != 0 {
		t.Error("draft left after commit")
	}
}

func TestModel_InvalidNumberKeepsEditing(t *testing.T) {
	h := newHarness(t, sampleItems()...)

	h.keys("s", "two", "enter")
	if h.model.State != StateEditing {
		t.Errorf("State = %v, want editing after a bad number", h.model.State)
	}
	if !h.model.StatusIsErr {
		t.Error("expected an error in the status line")
	}
	if h.item("a").Season != nil {
		t.Error("season changed")
	}
}

func TestModel_Filters(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []string
	}{
		{"all", nil, []string{"a", "b"}},
		{"plan to watch tab", []string{"tab"}, nil},
		{"watching tab", []string{"tab", "tab"}, []string{"a"}},
		{"dropped via previous", []string{"h"}, nil},
		{"genre tab anime", []string{"T"}, []string{"a"}},
		{"favorites only", []string{"F"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, sampleItems()...)
			h.keys(tt.keys...)
			var got []string
			for _, it := range h.model.List.Items() {
				got = append(got, it.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("visible = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("visible = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestModel_SearchSuggestions(t *testing.T) {
	h := newHarness(t, sampleItems()...)

	h.keys("/", "alpa")
	if h.model.List.Len() != 0 {
		t.Fatalf("List.Len() = %d, want 0", h.model.List.Len())
	}
	if len(h.model.suggestions) == 0 || h.model.suggestions[0] != "Alpha" {
		t.Fatalf("suggestions = %v, want [Alpha]", h.model.suggestions)
	}

	h.keys("tab", "enter")
	if h.model.Filters.Search != "Alpha" || h.model.List.Len() != 1 {
		t.Errorf("search = %q, visible %d", h.model.Filters.Search, h.model.List.Len())
	}

	h.keys("esc")
	if h.model.Filters.Search != "" || h.model.List.Len() != 2 {
		t.Errorf("esc did not clear the search")
	}
}

func TestModel_DeleteConfirmation(t *testing.T) {
	h := newHarness(t, sampleItems()...)

	h.keys("x", "n")
	if h.model.List.Len() != 2 {
		t.Fatal("declined delete removed the item")
	}

	h.keys("x", "y")
	if _, ok := h.model.items().Get("a"); ok {
		t.Error("item a still present")
	}
	h.model.items().Wait()
	if len(h.repo.deletes) != 1 || h.repo.deletes[0] != "a" {
		t.Errorf("deletes = %v", h.repo.deletes)
	}
}

func TestModel_CreateStartsTitleEdit(t *testing.T) {
	h := newHarness(t, sampleItems()...)
	h.keys("tab", "tab") // watching

	cmd := h.send(press("n"))
	if cmd == nil {
		t.Fatal("no create command")
	}
	h.send(cmd())

	if h.model.State != StateEditing || h.model.editField != "title" {
		t.Fatalf("State = %v field %q, want title edit", h.model.State, h.model.editField)
	}
	id := h.model.editID
	if it := h.item(id); it.Status != domain.StatusWatching || !it.IsNew {
		t.Errorf("created item = %+v", it)
	}

	h.send(tea.KeyMsg{Type: tea.KeyCtrlU}) // clear the placeholder title
	h.keys("Gamma", "enter")
	if it := h.item(id); it.Title != "Gamma" || it.IsNew {
		t.Errorf("after commit: title %q isNew %v", it.Title, it.IsNew)
	}
}

func TestModel_JumpClearsHidingFilters(t *testing.T) {
	h := newHarness(t, sampleItems()...)
	h.keys("tab", "tab") // watching, hides Beta

	h.keys("f", "bet", "enter")
	if h.model.State != StateBrowsing {
		t.Fatalf("State = %v", h.model.State)
	}
	if sel := h.model.List.Selected(); sel == nil || sel.ID != "b" {
		t.Errorf("Selected() = %+v, want Beta", sel)
	}
	if h.model.Filters != (domain.Filters{}) {
		t.Errorf("Filters = %+v, want cleared", h.model.Filters)
	}
}

func TestModel_QuickLink(t *testing.T) {
	h := newHarness(t, sampleItems()...)

	cmd := h.send(press("O"))
	if h.model.State != StateLinks || cmd != nil {
		t.Fatalf("State = %v", h.model.State)
	}
	cmd = h.send(press("1"))
	if cmd == nil {
		t.Fatal("no open command")
	}
	if _, ok := cmd().(LinkOpenedMsg); !ok {
		t.Error("expected LinkOpenedMsg")
	}
	if len(h.opener.opened) != 1 || h.opener.opened[0] != "https://example.com" {
		t.Errorf("opened = %v", h.opener.opened)
	}
}

func TestModel_SignOutQuits(t *testing.T) {
	h := newHarness(t, sampleItems()...)

	h.keys("L")
	cmd := h.send(press("y"))
	if cmd == nil {
		t.Fatal("no sign-out command")
	}

	cmd()
	if h.ctrl.Current() != nil {
		t.Fatal("session still active after sign-out")
	}

	quit := h.send(SessionEventMsg{Event: session.Event{}})
	if !h.model.SignedOut() {
		t.Error("SignedOut() = false")
	}
	if quit == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := quit().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestCycleStatusFilter(t *testing.T) {
	tests := []struct {
		current domain.Status
		dir     int
		want    domain.Status
	}{
		{"", 1, domain.StatusPlanToWatch},
		{"", -1, domain.StatusDropped},
		{domain.StatusDropped, 1, ""},
		{domain.StatusWatching, -1, domain.StatusPlanToWatch},
	}

	for _, tt := range tests {
		if got := cycleStatusFilter(tt.current, tt.dir); got != tt.want {
			t.Errorf("cycleStatusFilter(%q, %d) = %q, want %q", tt.current, tt.dir, got, tt.want)
		}
	}
}

func TestModel_WithSearch(t *testing.T) {
	h := newHarness(t, sampleItems()...)
	h.model = h.model.WithSearch("  bet ")

	if h.model.Filters.Search != "bet" {
		t.Errorf("Filters.Search = %q, want %q", h.model.Filters.Search, "bet")
	}
	if h.model.List.Len() != 1 || h.model.List.Selected().ID != "b" {
		t.Fatalf("visible = %+v, want only Beta", h.model.List.Items())
	}

	h.keys("esc")
	if h.model.Filters.Search != "" || h.model.List.Len() != 2 {
		t.Errorf("esc should clear the starting search, got %q with %d items", h.model.Filters.Search, h.model.List.Len())
	}
}
