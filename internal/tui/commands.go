package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/imagedata"
	"github.com/mmcdole/watchlist/internal/itemlist"
	"github.com/mmcdole/watchlist/internal/session"
)

// Command factories for async operations

// StartSessionsCmd subscribes the controller to auth changes. Events are
// delivered on events and picked up by WaitForSessionEventCmd.
func StartSessionsCmd(ctrl *session.Controller, events chan<- session.Event) tea.Cmd {
	return func() tea.Msg {
		ctrl.Start(context.Background(), func(e session.Event) {
			events <- e
		})
		return nil
	}
}

// WaitForSessionEventCmd blocks until the next session event
func WaitForSessionEventCmd(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		return SessionEventMsg{Event: <-events}
	}
}

// ReloadCmd fetches the user's items again
func ReloadCmd(items *itemlist.Manager, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := items.Load(ctx, userID); err != nil {
			return ErrMsg{Err: err, Context: "loading list"}
		}
		return ReloadedMsg{}
	}
}

// CreateItemCmd adds an item with defaults taken from the active filters
func CreateItemCmd(items *itemlist.Manager, filters domain.Filters) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		item, err := items.Create(ctx, filters)
		if err != nil {
			return ErrMsg{Err: err, Context: "adding item"}
		}
		return ItemCreatedMsg{Item: item}
	}
}

// ResolveImageCmd reads and encodes an image path off the UI goroutine
func ResolveImageCmd(itemID, input string) tea.Cmd {
	return func() tea.Msg {
		url, err := imagedata.Resolve(input)
		if err != nil {
			return ErrMsg{Err: err, Context: "attaching image"}
		}
		return ImageResolvedMsg{ItemID: itemID, URL: url}
	}
}

// OpenLinkCmd hands a quick link to the system opener
func OpenLinkCmd(opener LinkOpener, link Link) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Open(link.URL); err != nil {
			return ErrMsg{Err: err, Context: "opening " + link.Name}
		}
		return LinkOpenedMsg{Name: link.Name}
	}
}

// SignOutCmd ends the session. The controller reports the change as a
// session event.
func SignOutCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := ctrl.SignOut(ctx); err != nil {
			return ErrMsg{Err: err, Context: "signing out"}
		}
		return nil
	}
}

// ClearStatusAfter clears the status line after d
func ClearStatusAfter(text string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{Text: text}
	})
}
