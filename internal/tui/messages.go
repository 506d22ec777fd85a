package tui

import (
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/session"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SessionEventMsg carries a sign-in, sign-out or reload result
type SessionEventMsg struct {
	Event session.Event
}

// ItemCreatedMsg signals that a new item was persisted
type ItemCreatedMsg struct {
	Item domain.Item
}

// ReloadedMsg signals that the list was fetched again
type ReloadedMsg struct{}

// ImageResolvedMsg carries the value to store as an item's image
type ImageResolvedMsg struct {
	ItemID string
	URL    string
}

// LinkOpenedMsg signals that a quick link was handed to the system opener
type LinkOpenedMsg struct {
	Name string
}

// ClearStatusMsg clears the status line if it still shows the same text
type ClearStatusMsg struct {
	Text string
}
