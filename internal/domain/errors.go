package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested item does not exist
	ErrItemNotFound = errors.New("item not found")

	// ErrStoreOffline indicates the document store is unreachable
	ErrStoreOffline = errors.New("document store is unreachable")

	// ErrAuthFailed indicates the credentials were rejected
	ErrAuthFailed = errors.New("invalid email or password")

	// ErrEmailExists indicates sign-up used an email that is already registered
	ErrEmailExists = errors.New("email is already registered")

	// ErrWeakPassword indicates sign-up used a password the provider refuses
	ErrWeakPassword = errors.New("password is too weak")

	// ErrConflict indicates another writer changed the document mid-update
	ErrConflict = errors.New("document changed by another writer")

	// ErrNotSignedIn indicates an operation needs an authenticated user
	ErrNotSignedIn = errors.New("not signed in")

	// ErrNotAnImage indicates an attached file is not an image
	ErrNotAnImage = errors.New("file is not an image")

	// ErrImageTooLarge indicates an attached image exceeds the inline size limit
	ErrImageTooLarge = errors.New("image is too large to store inline")
)
