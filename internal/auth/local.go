package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/store"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength matches the hosted provider's rule
const MinPasswordLength = 6

// UserStore holds local accounts
type UserStore interface {
	GetUser(email string) (*store.UserRecord, bool, error)
	SaveUser(rec store.UserRecord) error
}

// Local implements domain.AuthClient against accounts kept in the local
// database. Used with the self-hosted document stores.
type Local struct {
	users    UserStore
	sessions SessionStore
	notifier *Notifier
	logger   *slog.Logger
}

// NewLocal creates a local auth client. restored is the session saved by a
// previous run, or nil.
func NewLocal(users UserStore, sessions SessionStore, restored *domain.AuthResult, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		users:    users,
		sessions: sessions,
		notifier: NewNotifier(restored),
		logger:   logger,
	}
}

func (a *Local) SignUp(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address %q", email)
	}
	if len(password) < MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, exists, err := a.users.GetUser(email); err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	} else if exists {
		return nil, domain.ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	rec := store.UserRecord{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().Unix(),
	}
	if err := a.users.SaveUser(rec); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	a.logger.Info("registered local user", "userID", rec.ID)
	return a.establish(&domain.AuthResult{UserID: rec.ID, Email: rec.Email}), nil
}

func (a *Local) SignIn(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	rec, ok, err := a.users.GetUser(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !ok {
		return nil, domain.ErrAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrAuthFailed
	}

	a.logger.Info("signed in", "userID", rec.ID)
	return a.establish(&domain.AuthResult{UserID: rec.ID, Email: rec.Email}), nil
}

func (a *Local) SignOut(ctx context.Context) error {
	if a.sessions != nil {
		if err := a.sessions.ClearSession(); err != nil {
			a.logger.Error("failed to clear saved session", "error", err)
		}
	}
	a.notifier.Set(nil)
	a.logger.Info("signed out")
	return nil
}

func (a *Local) CurrentUser() *domain.AuthResult {
	return a.notifier.Current()
}

func (a *Local) OnAuthStateChange(fn domain.AuthStateFunc) func() {
	return a.notifier.Subscribe(fn)
}

func (a *Local) establish(result *domain.AuthResult) *domain.AuthResult {
	if a.sessions != nil {
		if err := a.sessions.SaveSession(result); err != nil {
			a.logger.Error("failed to save session", "error", err)
		}
	}
	a.notifier.Set(result)
	return result
}
