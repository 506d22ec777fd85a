package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/itemlist"
)

// Session is the signed-in user's state. It exists only between sign-in
// and sign-out.
type Session struct {
	UserID string
	Items  *itemlist.Manager
}

// Event reports a session change. Session is nil after sign-out. Err holds
// a failed initial load; the session is still usable and empty.
type Event struct {
	Session *Session
	Err     error
}

// Controller creates and tears down sessions as the auth state changes
type Controller struct {
	auth   domain.AuthClient
	repo   domain.ItemRepository
	logger *slog.Logger

	mu          sync.Mutex
	current     *Session
	unsubscribe func()

	// flushes tracks ended sessions whose writes are still landing
	flushes sync.WaitGroup
}

// NewController creates a controller for the given auth provider and item store
func NewController(auth domain.AuthClient, repo domain.ItemRepository, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{auth: auth, repo: repo, logger: logger}
}

// Start subscribes to auth changes. onChange runs for the current state
// right away and after every sign-in or sign-out.
func (c *Controller) Start(ctx context.Context, onChange func(Event)) {
	unsubscribe := c.auth.OnAuthStateChange(func(userID *string) {
		onChange(c.handle(ctx, userID))
	})

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

// Current returns the active session, or nil when signed out
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SignOut ends the session through the auth provider
func (c *Controller) SignOut(ctx context.Context) error {
	return c.auth.SignOut(ctx)
}

// Stop unsubscribes and waits for the writes of the active session and of
// every ended session to land
func (c *Controller) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	current := c.current
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if current != nil {
		current.Items.Wait()
	}
	c.flushes.Wait()
}

func (c *Controller) handle(ctx context.Context, userID *string) Event {
	if userID == nil {
		c.teardown()
		return Event{}
	}

	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	if current != nil && current.UserID == *userID {
		err := current.Items.Load(ctx, *userID)
		return Event{Session: current, Err: err}
	}

	c.teardown()

	s := &Session{
		UserID: *userID,
		Items:  itemlist.NewManager(c.repo, c.logger.With("userID", *userID)),
	}
	err := s.Items.Load(ctx, *userID)
	if err != nil {
		c.logger.Error("failed to load session items", "error", err, "userID", *userID)
	}

	c.mu.Lock()
	c.current = s
	c.mu.Unlock()

	c.logger.Info("session started", "userID", *userID)
	return Event{Session: s, Err: err}
}

func (c *Controller) teardown() {
	c.mu.Lock()
	old := c.current
	c.current = nil
	c.mu.Unlock()

	if old == nil {
		return
	}
	old.Items.Reset()
	c.logger.Info("session ended", "userID", old.UserID)

	// A write can itself end the session (a rejected token refresh signs
	// out from inside the write), so its completion is awaited off this
	// goroutine.
	c.flushes.Add(1)
	go func() {
		defer c.flushes.Done()
		old.Items.Wait()
		c.logger.Debug("session writes flushed", "userID", old.UserID)
	}()
}
