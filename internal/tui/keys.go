package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Filters
	NextStatus   key.Binding
	PrevStatus   key.Binding
	NextGenre    key.Binding
	FavoriteOnly key.Binding
	Search       key.Binding
	Jump         key.Binding

	// Editing
	New            key.Binding
	EditTitle      key.Binding
	EditComment    key.Binding
	EditSeason     key.Binding
	EditEpisode    key.Binding
	EditTotal      key.Binding
	EditOrder      key.Binding
	EpisodeUp      key.Binding
	EpisodeDown    key.Binding
	Rate           key.Binding
	CycleStatus    key.Binding
	CycleGenre     key.Binding
	ToggleFavorite key.Binding
	Image          key.Binding
	Delete         key.Binding

	// Other
	Links   key.Binding
	Reload  key.Binding
	Logout  key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextStatus: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab", "next status"),
		),
		PrevStatus: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("S-tab", "previous status"),
		),
		NextGenre: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "next genre tab"),
		),
		FavoriteOnly: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "favorites only"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Jump: key.NewBinding(
			key.WithKeys("f", "ctrl+f"),
			key.WithHelp("f", "jump to title"),
		),

		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new item"),
		),
		EditTitle: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit title"),
		),
		EditComment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "edit comment"),
		),
		EditSeason: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "edit season"),
		),
		EditEpisode: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "edit episode"),
		),
		EditTotal: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "edit episode count"),
		),
		EditOrder: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "edit film order"),
		),
		EpisodeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "next episode"),
		),
		EpisodeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "previous episode"),
		),
		Rate: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5"),
			key.WithHelp("0-5", "rate"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "cycle status"),
		),
		CycleGenre: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle genre"),
		),
		ToggleFavorite: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "favorite"),
		),
		Image: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "set image"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete"),
		),

		Links: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "quick links"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign out"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// Keys is the global key map instance
var Keys = DefaultKeyMap()
