package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mmcdole/watchlist/internal/auth"
	"github.com/mmcdole/watchlist/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 30 * time.Second
	userAgent          = "Watchlist/1.0"
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	secureTokenURL     = "https://securetoken.googleapis.com/v1"

	// refresh this long before the ID token expires
	refreshSkew = time.Minute
)

// Endpoints overrides the Google API base URLs. Zero values use the defaults.
type Endpoints struct {
	IdentityToolkit string
	SecureToken     string
	Firestore       string
}

func (e Endpoints) withDefaults() Endpoints {
	if e.IdentityToolkit == "" {
		e.IdentityToolkit = identityToolkitURL
	}
	if e.SecureToken == "" {
		e.SecureToken = secureTokenURL
	}
	if e.Firestore == "" {
		e.Firestore = firestoreURL
	}
	return e
}

// Auth implements domain.AuthClient against Firebase email/password accounts
type Auth struct {
	apiKey     string
	endpoints  Endpoints
	httpClient *http.Client
	limiter    *rate.Limiter
	sessions   auth.SessionStore
	notifier   *auth.Notifier
	logger     *slog.Logger
}

// NewAuth creates a Firebase auth client. restored is the session saved by a
// previous run, or nil.
func NewAuth(apiKey string, endpoints Endpoints, sessions auth.SessionStore, restored *domain.AuthResult, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{
		apiKey:    apiKey,
		endpoints: endpoints.withDefaults(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(2), 4),
		sessions: sessions,
		notifier: auth.NewNotifier(restored),
		logger:   logger,
	}
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	result, err := a.passwordCall(ctx, "accounts:signInWithPassword", email, password)
	if err != nil {
		return nil, err
	}
	a.logger.Info("signed in", "userID", result.UserID)
	return a.establish(result), nil
}

func (a *Auth) SignUp(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	result, err := a.passwordCall(ctx, "accounts:signUp", email, password)
	if err != nil {
		return nil, err
	}
	a.logger.Info("registered user", "userID", result.UserID)
	return a.establish(result), nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	if a.sessions != nil {
		if err := a.sessions.ClearSession(); err != nil {
			a.logger.Error("failed to clear saved session", "error", err)
		}
	}
	a.notifier.Set(nil)
	a.logger.Info("signed out")
	return nil
}

func (a *Auth) CurrentUser() *domain.AuthResult {
	return a.notifier.Current()
}

func (a *Auth) OnAuthStateChange(fn domain.AuthStateFunc) func() {
	return a.notifier.Subscribe(fn)
}

// IDToken returns a bearer token for Firestore, refreshing it when it is
// about to expire. A rejected refresh token signs the user out.
func (a *Auth) IDToken(ctx context.Context) (string, error) {
	current := a.notifier.Current()
	if current == nil {
		return "", domain.ErrNotSignedIn
	}

	if exp, err := tokenExpiry(current.IDToken); err == nil && time.Until(exp) > refreshSkew {
		return current.IDToken, nil
	}

	refreshed, err := a.refresh(ctx, current)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			a.logger.Warn("refresh token rejected, signing out", "userID", current.UserID)
			_ = a.SignOut(ctx)
		}
		return "", err
	}
	return refreshed.IDToken, nil
}

func (a *Auth) refresh(ctx context.Context, current *domain.AuthResult) (*domain.AuthResult, error) {
	if current.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token: %w", domain.ErrAuthFailed)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", current.RefreshToken)

	reqURL := fmt.Sprintf("%s/token?key=%s", a.endpoints.SecureToken, url.QueryEscape(a.apiKey))
	body, err := a.do(ctx, reqURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	var resp RefreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	result := &domain.AuthResult{
		UserID:       resp.UserID,
		Email:        current.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	if result.UserID == "" {
		result.UserID = current.UserID
	}
	if !a.notifier.Refresh(result) {
		return nil, fmt.Errorf("session changed during refresh: %w", domain.ErrNotSignedIn)
	}
	if a.sessions != nil {
		if err := a.sessions.SaveSession(result); err != nil {
			a.logger.Error("failed to save refreshed session", "error", err)
		}
	}
	a.logger.Debug("refreshed id token", "userID", result.UserID)
	return result, nil
}

func (a *Auth) passwordCall(ctx context.Context, method, email, password string) (*domain.AuthResult, error) {
	payload, err := json.Marshal(passwordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?key=%s", a.endpoints.IdentityToolkit, method, url.QueryEscape(a.apiKey))
	body, err := a.do(ctx, reqURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var resp AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse auth response: %w", err)
	}

	userID := resp.LocalID
	if fromToken, err := tokenUserID(resp.IDToken); err == nil {
		userID = fromToken
	}
	if userID == "" {
		return nil, fmt.Errorf("auth response carried no user id: %w", domain.ErrAuthFailed)
	}

	return &domain.AuthResult{
		UserID:       userID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// do posts to a Google auth endpoint and maps its error envelope
func (a *Auth) do(ctx context.Context, reqURL, contentType string, payload io.Reader) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("auth request failed", "error", err)
		return nil, domain.ErrStoreOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("auth request error", "status", resp.StatusCode, "body", string(body))
		return nil, authError(resp.StatusCode, body)
	}
	return body, nil
}

func (a *Auth) establish(result *domain.AuthResult) *domain.AuthResult {
	if a.sessions != nil {
		if err := a.sessions.SaveSession(result); err != nil {
			a.logger.Error("failed to save session", "error", err)
		}
	}
	a.notifier.Set(result)
	return result
}

// authError maps Identity Toolkit error codes onto domain errors. Messages
// look like "WEAK_PASSWORD : Password should be at least 6 characters".
func authError(status int, body []byte) error {
	var env ErrorResponse
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Message == "" {
		return fmt.Errorf("unexpected status code: %d", status)
	}

	code, _, _ := strings.Cut(env.Error.Message, " ")
	switch code {
	case "EMAIL_EXISTS":
		return domain.ErrEmailExists
	case "WEAK_PASSWORD":
		return domain.ErrWeakPassword
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED",
		"INVALID_EMAIL", "MISSING_PASSWORD", "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN",
		"USER_NOT_FOUND", "INVALID_ID_TOKEN":
		return fmt.Errorf("%s: %w", code, domain.ErrAuthFailed)
	default:
		return fmt.Errorf("%s (status %d)", env.Error.Message, status)
	}
}

// tokenUserID reads the Firebase user id from an ID token. The signature is
// not checked here; Firestore verifies the token on every request.
func tokenUserID(idToken string) (string, error) {
	claims, err := parseClaims(idToken)
	if err != nil {
		return "", err
	}
	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

func tokenExpiry(idToken string) (time.Time, error) {
	claims, err := parseClaims(idToken)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry")
	}
	return exp.Time, nil
}

func parseClaims(idToken string) (jwt.MapClaims, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token: %w", err)
	}
	return claims, nil
}
