package auth

import (
	"sync"

	"github.com/mmcdole/watchlist/internal/domain"
)

// SessionStore persists the signed-in user between runs
type SessionStore interface {
	SaveSession(result *domain.AuthResult) error
	ClearSession() error
}

// Notifier tracks the current user and fans out auth state changes
type Notifier struct {
	mu      sync.Mutex
	current *domain.AuthResult
	subs    map[int]domain.AuthStateFunc
	nextID  int
}

// NewNotifier creates a notifier starting from a restored session, if any
func NewNotifier(current *domain.AuthResult) *Notifier {
	return &Notifier{current: current, subs: make(map[int]domain.AuthStateFunc)}
}

// Current returns the signed-in user, or nil
func (n *Notifier) Current() *domain.AuthResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	c := *n.current
	return &c
}

// Subscribe registers fn and calls it right away with the current state
func (n *Notifier) Subscribe(fn domain.AuthStateFunc) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	uid := userIDOf(n.current)
	n.mu.Unlock()

	fn(uid)

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Set replaces the current user and notifies subscribers. Passing nil signs out.
func (n *Notifier) Set(result *domain.AuthResult) {
	n.mu.Lock()
	n.current = result
	uid := userIDOf(result)
	subs := make([]domain.AuthStateFunc, 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(uid)
	}
}

// Refresh swaps in renewed credentials for the same user without notifying.
// It reports false when the user changed or nobody is signed in.
func (n *Notifier) Refresh(result *domain.AuthResult) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil || result == nil || n.current.UserID != result.UserID {
		return false
	}
	n.current = result
	return true
}

func userIDOf(r *domain.AuthResult) *string {
	if r == nil || r.UserID == "" {
		return nil
	}
	id := r.UserID
	return &id
}
