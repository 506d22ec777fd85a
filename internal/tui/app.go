package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/itemlist"
	"github.com/mmcdole/watchlist/internal/search"
	"github.com/mmcdole/watchlist/internal/session"
	"github.com/mmcdole/watchlist/internal/tui/components"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateEditing
	StateSearching
	StateJump
	StateImageInput
	StateLinks
	StateConfirmDelete
	StateConfirmLogout
	StateHelp
)

// Layout proportions
const (
	ListPercent     = 58
	MinListWidth    = 30
	HeaderHeight    = 2
	FooterHeight    = 1
	maxSuggestions  = 3
	statusLinger    = 4 * time.Second
	maxQuickLinks   = 9
	minContentLines = 3
)

// Link is a quick link to an external site
type Link struct {
	Name string
	URL  string
}

// LinkOpener opens a URL outside the terminal
type LinkOpener interface {
	Open(url string) error
}

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState
	Ready bool

	Sessions *session.Controller
	Opener   LinkOpener
	Links    []Link
	Logger   *slog.Logger

	events  chan session.Event
	session *session.Session

	// View selection
	Filters     domain.Filters
	suggestions []string

	// UI Components
	List      components.ItemList
	Inspector components.Inspector
	Omnibar   components.Omnibar
	Input     components.InputModal

	// In-progress edit or confirmation target
	editID    string
	editField itemlist.Field

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	signedOut   bool
}

// NewModel creates a new application model
func NewModel(sessions *session.Controller, opener LinkOpener, links []Link, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if len(links) > maxQuickLinks {
		links = links[:maxQuickLinks]
	}
	return Model{
		State:     StateBrowsing,
		Sessions:  sessions,
		Opener:    opener,
		Links:     links,
		Logger:    logger,
		events:    make(chan session.Event, 4),
		List:      components.NewItemList(),
		Inspector: components.NewInspector(),
		Omnibar:   components.NewOmnibar(),
		Input:     components.NewInputModal(),
	}
}

// WithSearch starts the list filtered by a title search
func (m Model) WithSearch(query string) Model {
	m.Filters.Search = strings.TrimSpace(query)
	m.refresh()
	return m
}

// SignedOut reports whether the program ended because the user signed out
func (m Model) SignedOut() bool {
	return m.signedOut
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		StartSessionsCmd(m.Sessions, m.events),
		WaitForSessionEventCmd(m.events),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case SessionEventMsg:
		m.session = msg.Event.Session
		if m.session == nil {
			m.signedOut = true
			return m, tea.Quit
		}
		drafts := m.session.Items.Drafts()
		m.List.SetDrafts(drafts)
		m.Inspector.SetDrafts(drafts)
		m.refresh()
		var cmds []tea.Cmd
		cmds = append(cmds, WaitForSessionEventCmd(m.events))
		if msg.Event.Err != nil {
			cmds = append(cmds, m.setError(ErrMsg{Err: msg.Event.Err, Context: "loading list"}))
		}
		return m, tea.Batch(cmds...)

	case ReloadedMsg:
		m.refresh()
		return m, m.setStatus("List reloaded")

	case ItemCreatedMsg:
		m.refresh()
		if !m.List.SelectID(msg.Item.ID) {
			return m, m.setStatus("Added item is hidden by the current filters")
		}
		m.Inspector.SetItem(m.List.Selected())
		m.startEdit(itemlist.FieldTitle)
		return m, nil

	case ImageResolvedMsg:
		if items := m.items(); items != nil {
			items.Update(context.Background(), msg.ItemID, domain.ItemPatch{ImageURL: &msg.URL})
		}
		m.refresh()
		if msg.URL == "" {
			return m, m.setStatus("Image cleared")
		}
		return m, m.setStatus("Image updated")

	case LinkOpenedMsg:
		return m, m.setStatus("Opened " + msg.Name)

	case ErrMsg:
		m.Logger.Error("operation failed", "context", msg.Context, "error", msg.Err)
		return m, m.setError(msg)

	case ClearStatusMsg:
		if m.StatusMsg == msg.Text {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	// Cursor blink and other input housekeeping
	var cmd tea.Cmd
	switch {
	case m.Omnibar.IsVisible():
		m.Omnibar, cmd, _ = m.Omnibar.Update(msg)
	case m.Input.IsVisible():
		m.Input, cmd, _ = m.Input.Update(msg)
	}
	return m, cmd
}

// items returns the active session's list, or nil when signed out
func (m Model) items() *itemlist.Manager {
	if m.session == nil {
		return nil
	}
	return m.session.Items
}

// refresh re-projects the list and updates dependent components
func (m *Model) refresh() {
	items := m.items()
	if items == nil {
		m.List.SetItems(nil)
		m.Inspector.SetItem(nil)
		m.suggestions = nil
		return
	}

	visible := items.Visible(m.Filters)
	m.List.SetItems(visible)
	m.Inspector.SetItem(m.List.Selected())

	m.suggestions = nil
	if len(visible) == 0 && m.Filters.Search != "" {
		m.suggestions = search.Suggest(m.Filters.Search, items.Items(), maxSuggestions)
	}
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = false
	return ClearStatusAfter(text, statusLinger)
}

func (m *Model) setError(err ErrMsg) tea.Cmd {
	m.StatusMsg = err.Error()
	m.StatusIsErr = true
	return ClearStatusAfter(m.StatusMsg, 2*statusLinger)
}

// updateLayout sizes components for the window and any open prompt
func (m *Model) updateLayout() {
	contentHeight := m.contentHeight()
	listWidth := m.listWidth()

	m.List.SetSize(listWidth, contentHeight)
	m.Inspector.SetSize(m.Width-listWidth, contentHeight)
	m.Omnibar.SetSize(m.Width, m.Height)
}
