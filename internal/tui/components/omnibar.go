package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/search"
	"github.com/mmcdole/watchlist/internal/tui/styles"
)

const maxOmnibarResults = 10

// Omnibar is the fuzzy jump-to-title modal
type Omnibar struct {
	input     textinput.Model
	items     []domain.Item
	results   []search.Result
	cursor    int
	visible   bool
	width     int
	height    int
	prevQuery string
}

// NewOmnibar creates a new omnibar component
func NewOmnibar() Omnibar {
	ti := textinput.New()
	ti.Placeholder = "Jump to title..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "› "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return Omnibar{
		input: ti,
	}
}

// Show opens the omnibar over the given items
func (o *Omnibar) Show(items []domain.Item) {
	o.visible = true
	o.items = items
	o.input.Focus()
	o.input.SetValue("")
	o.results = nil
	o.cursor = 0
	o.prevQuery = ""
}

// Hide hides the omnibar
func (o *Omnibar) Hide() {
	o.visible = false
	o.items = nil
	o.input.Blur()
}

// IsVisible returns true if the omnibar is visible
func (o Omnibar) IsVisible() bool {
	return o.visible
}

// SetSize updates the component dimensions
func (o *Omnibar) SetSize(width, height int) {
	o.width = width
	o.height = height
	o.input.Width = max(width*2/3-10, 20)
}

// Query returns the current query
func (o Omnibar) Query() string {
	return o.input.Value()
}

// Selected returns the highlighted result
func (o Omnibar) Selected() *search.Result {
	if o.cursor < 0 || o.cursor >= len(o.results) {
		return nil
	}
	return &o.results[o.cursor]
}

// ResultCount returns the number of matches
func (o Omnibar) ResultCount() int {
	return len(o.results)
}

// Update handles messages, returns (omnibar, cmd, selected)
func (o Omnibar) Update(msg tea.Msg) (Omnibar, tea.Cmd, bool) {
	if !o.visible {
		return o, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, OmnibarKeys.Escape):
			o.Hide()
			return o, nil, false
		case key.Matches(keyMsg, OmnibarKeys.Enter):
			return o, nil, len(o.results) > 0
		case key.Matches(keyMsg, OmnibarKeys.Down):
			if o.cursor < len(o.results)-1 {
				o.cursor++
			}
			return o, nil, false
		case key.Matches(keyMsg, OmnibarKeys.Up):
			if o.cursor > 0 {
				o.cursor--
			}
			return o, nil, false
		}
	}

	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	if q := o.input.Value(); q != o.prevQuery {
		o.prevQuery = q
		o.results = search.Jump(q, o.items, 0)
		o.cursor = 0
	}
	return o, cmd, false
}

// View renders the component
func (o Omnibar) View() string {
	if !o.visible {
		return ""
	}

	modalWidth := min(max(o.width*2/3, 40), 80)

	var b strings.Builder
	b.WriteString(o.input.View())
	b.WriteString("\n\n")
	o.renderResults(&b, modalWidth)

	content := lipgloss.NewStyle().
		Width(modalWidth - 4).
		Render(b.String())

	modal := styles.ModalStyle.
		Width(modalWidth).
		Render(content)

	return lipgloss.Place(
		o.width,
		o.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}

func (o Omnibar) renderResults(b *strings.Builder, modalWidth int) {
	if len(o.results) == 0 {
		if o.input.Value() != "" {
			b.WriteString(styles.DimStyle.Render("No matches"))
		}
		return
	}

	shown := min(len(o.results), maxOmnibarResults)
	for i := 0; i < shown; i++ {
		r := o.results[i]
		selected := i == o.cursor

		marker := lipgloss.NewStyle().Foreground(styles.StatusColor(r.Item.Status)).
			Render(styles.StatusChar(r.Item.Status))
		badge := styles.DimBadgeStyle.Render(styles.GenreBadge(r.Item.EffectiveGenre()))

		title := r.Item.Title
		matched := r.MatchedIndexes
		if limit := modalWidth - 16; lipgloss.Width(title) > limit {
			title = styles.Truncate(title, limit)
			matched = nil
		}

		b.WriteString(marker + " " + badge + " " + styles.HighlightMatches(title, matched, selected))
		b.WriteString("\n")
	}

	if len(o.results) > maxOmnibarResults {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("... and %d more", len(o.results)-maxOmnibarResults)))
	}
}
