package domain

import (
	"context"
)

// ItemsCollection is the collection that holds one document per item
const ItemsCollection = "items"

// Document is a stored record: its ID plus decoded JSON-compatible fields
// (string, float64/int64, bool, nil, nested maps and slices).
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentStore is the remote document database. Implementations make no
// transactional promises across calls and never retry on their own.
type DocumentStore interface {
	// QueryByEquality returns every document in collection whose field equals value
	QueryByEquality(ctx context.Context, collection, field string, value any) ([]Document, error)

	// Create stores a new document and returns the ID the store assigned
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Update merges fields into an existing document. A nil value clears the field.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document
	Delete(ctx context.Context, collection, id string) error

	// Close releases connections held by the store
	Close() error
}

// ItemRepository is the typed view of the items collection
type ItemRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	Create(ctx context.Context, item Item) (string, error)
	Update(ctx context.Context, id string, patch ItemPatch) error
	Delete(ctx context.Context, id string) error
}

// AuthResult contains the result of a successful authentication
type AuthResult struct {
	UserID       string // Stable user identifier
	Email        string
	IDToken      string // Bearer token for the document store (firebase only)
	RefreshToken string
}

// AuthStateFunc receives the current user ID, or nil when signed out
type AuthStateFunc func(userID *string)

// AuthClient issues a stable user identifier after credential sign-in.
type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	SignUp(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context) error

	// CurrentUser returns the signed-in user, or nil
	CurrentUser() *AuthResult

	// OnAuthStateChange calls fn once with the current state and again on
	// every sign-in or sign-out. The returned func unsubscribes.
	OnAuthStateChange(fn AuthStateFunc) (unsubscribe func())
}
