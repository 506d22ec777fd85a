package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/watchlist/internal/auth"
	"github.com/mmcdole/watchlist/internal/domain"
)

// fakeAuth drives auth state by hand
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
	listErr error
	deletes []string

	onUpdate func(context.Context) error
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Item
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeRepo) Create(context.Context, domain.Item) (string, error) { return "new", nil }
func (r *fakeRepo) Update(ctx context.Context, _ string, _ domain.ItemPatch) error {
	if r.onUpdate != nil {
		return r.onUpdate(ctx)
	}
	return nil
}
func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestController_Lifecycle(t *testing.T) {
	repo := &fakeRepo{items: []domain.Item{
		{ID: "a", Title: "Mine", UserID: "u1"},
		{ID: "b", Title: "Theirs", UserID: "u2"},
	}}
	fa := fakeAuth{auth.NewNotifier(nil)}
	c := NewController(fa, repo, testLogger())

	var events []Event
	c.Start(context.Background(), func(e Event) { events = append(events, e) })

	if len(events) != 1 || events[0].Session != nil {
		t.Fatalf("initial events = %+v, want one signed-out event", events)
	}

	fa.Set(&domain.AuthResult{UserID: "u1"})
	s := c.Current()
	if s == nil || s.UserID != "u1" {
		t.Fatalf("Current() = %+v, want u1 session", s)
	}
	if items := s.Items.Items(); len(items) != 1 || items[0].ID != "a" {
		t.Errorf("session items = %+v", items)
	}

	s.Items.Remove(context.Background(), "a")

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Current() != nil {
		t.Error("session survived sign-out")
	}
	if len(s.Items.Items()) != 0 || s.Items.UserID() != "" {
		t.Error("old session was not reset")
	}
	if len(events) != 3 || events[1].Session == nil || events[2].Session != nil {
		t.Errorf("events = %+v", events)
	}

	c.Stop()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.deletes) != 1 {
		t.Errorf("pending delete not flushed by Stop: %v", repo.deletes)
	}
}

func TestController_SwitchUser(t *testing.T) {
	repo := &fakeRepo{items: []domain.Item{
		{ID: "a", UserID: "u1"},
		{ID: "b", UserID: "u2"},
	}}
	fa := fakeAuth{auth.NewNotifier(&domain.AuthResult{UserID: "u1"})}
	c := NewController(fa, repo, testLogger())
	c.Start(context.Background(), func(Event) {})
	defer c.Stop()

	first := c.Current()
	fa.Set(&domain.AuthResult{UserID: "u2"})
	second := c.Current()

	if first == second {
		t.Fatal("switching user reused the session")
	}
	if items := second.Items.Items(); len(items) != 1 || items[0].ID != "b" {
		t.Errorf("u2 items = %+v", items)
	}
	if len(first.Items.Items()) != 0 {
		t.Error("u1 session still holds items")
	}
}

func TestController_LoadFailure(t *testing.T) {
	repo := &fakeRepo{listErr: domain.ErrStoreOffline}
	fa := fakeAuth{auth.NewNotifier(&domain.AuthResult{UserID: "u1"})}
	c := NewController(fa, repo, testLogger())

	var got Event
	c.Start(context.Background(), func(e Event) { got = e })
	defer c.Stop()

	if !errors.Is(got.Err, domain.ErrStoreOffline) {
		t.Errorf("event error = %v, want ErrStoreOffline", got.Err)
	}
	if got.Session == nil {
		t.Fatal("load failure should still start the session")
	}

	item, err := got.Session.Items.Create(context.Background(), domain.Filters{})
	if err != nil || item.UserID != "u1" {
		t.Errorf("Create() after failed load = %+v, %v", item, err)
	}
}

func TestController_WriteThatSignsOut(t *testing.T) {
	repo := &fakeRepo{items: []domain.Item{{ID: "a", Title: "Alpha", UserID: "u1"}}}
	fa := fakeAuth{auth.NewNotifier(&domain.AuthResult{UserID: "u1"})}

	// the store's token refresh is rejected mid-write and signs the user out
	repo.onUpdate = func(ctx context.Context) error {
		_ = fa.SignOut(ctx)
		return domain.ErrAuthFailed
	}

	c := NewController(fa, repo, testLogger())
	events := make(chan Event, 4)
	c.Start(context.Background(), func(e Event) { events <- e })

	first := <-events
	if first.Session == nil {
		t.Fatal("expected a restored session")
	}

	rating := 4
	first.Session.Items.Update(context.Background(), "a", domain.ItemPatch{Rating: &rating})

	select {
	case e := <-events:
		if e.Session != nil {
			t.Fatalf("event = %+v, want sign-out", e)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("sign-out event not delivered")
	}
	if c.Current() != nil {
		t.Error("session survived sign-out")
	}
	if len(first.Session.Items.Items()) != 0 {
		t.Error("old session was not reset")
	}

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return after the session's writes finished")
	}
}
