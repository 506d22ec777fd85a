package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmDelete:
		return m.renderDeleteConfirmation()
	case StateConfirmLogout:
		return m.renderLogoutConfirmation()
	case StateLinks:
		return m.renderLinks()
	case StateJump:
		return m.Omnibar.View()
	}

	var list string
	if m.List.Len() == 0 {
		list = m.renderEmpty()
	} else {
		list = m.List.View()
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, list, m.Inspector.View())

	parts := []string{m.renderHeader(), content}
	if m.Input.IsVisible() {
		parts = append(parts, m.Input.View())
	}
	parts = append(parts, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader renders the status tabs and the genre/favorite/search line
func (m Model) renderHeader() string {
	var tabs []string
	for _, s := range append([]domain.Status{""}, domain.Statuses...) {
		label := "All"
		if s != "" {
			label = s.Label()
		}
		if s == m.Filters.Status {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.TabStyle.Render(label))
		}
	}

	var sub []string
	for _, g := range append([]domain.Genre{""}, domain.Genres...) {
		label := "All genres"
		if g != "" {
			label = g.Label()
		}
		if g == m.Filters.Genre {
			sub = append(sub, styles.ActiveSubTabStyle.Render(label))
		} else {
			sub = append(sub, styles.SubTabStyle.Render(label))
		}
	}
	if m.Filters.FavoriteOnly {
		sub = append(sub, styles.AccentStyle.Render(styles.FavoriteChar+" only"))
	}
	if m.Filters.Search != "" && m.State != StateSearching {
		sub = append(sub, styles.DimStyle.Render("search: ")+styles.AccentStyle.Render(m.Filters.Search))
	}

	fit := lipgloss.NewStyle().MaxWidth(m.Width)
	line1 := fit.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	line2 := fit.Render(lipgloss.JoinHorizontal(lipgloss.Top, sub...))
	return line1 + "\n" + line2
}

// renderEmpty fills the list area when the projection is empty
func (m Model) renderEmpty() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.session == nil:
		b.WriteString(styles.DimStyle.Render("Loading..."))
	case len(m.suggestions) > 0:
		b.WriteString(styles.DimStyle.Render("No titles match "))
		b.WriteString(styles.AccentStyle.Render(fmt.Sprintf("%q", m.Filters.Search)))
		b.WriteString("\n\n")
		b.WriteString(styles.SubtitleStyle.Render("Did you mean:"))
		b.WriteString("\n")
		for _, s := range m.suggestions {
			b.WriteString("  " + styles.TitleStyle.Render(s) + "\n")
		}
		if m.State == StateSearching {
			b.WriteString("\n" + styles.DimStyle.Render("tab uses the first suggestion"))
		}
	case m.Filters.Search != "":
		b.WriteString(styles.DimStyle.Render("No titles match the search"))
	default:
		b.WriteString(styles.DimStyle.Render("Nothing here yet. Press "))
		b.WriteString(styles.AccentStyle.Render("n"))
		b.WriteString(styles.DimStyle.Render(" to add a title."))
	}

	return lipgloss.NewStyle().
		Width(m.listWidth()).
		Height(max(m.contentHeight(), 1)).
		Padding(0, 2).
		Render(b.String())
}

func (m Model) listWidth() int {
	return min(max(m.Width*ListPercent/100, MinListWidth), m.Width)
}

func (m Model) contentHeight() int {
	h := m.Height - HeaderHeight - FooterHeight
	if m.Input.IsVisible() {
		h -= lipgloss.Height(m.Input.View())
	}
	return max(h, minContentLines)
}

// renderFooter renders the status line and key hints
func (m Model) renderFooter() string {
	var left string
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	} else if items := m.items(); items != nil {
		left = styles.DimStyle.Render(fmt.Sprintf("%d of %d", m.List.Len(), len(items.Items())))
	}

	var center string
	switch m.State {
	case StateEditing, StateImageInput:
		center = hint("enter", "save") + "  " + hint("esc", "cancel")
	case StateSearching:
		center = hint("enter", "keep") + "  " + hint("esc", "clear")
	default:
		center = hint("n", "new") + "  " + hint("w", "status") + "  " + hint("0-5", "rate") + "  " + hint("f", "jump")
	}

	right := hint("?", "help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

func hint(k, desc string) string {
	return styles.HelpKeyStyle.Render(k) + styles.HelpDescStyle.Render(" "+desc)
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      EDITING
  j/k        Up/down               e/Enter  Title
  g/G        First/last item       c        Comment
  Ctrl+u/d   Half page             s        Season
  Tab/S-Tab  Status tab            p/P      Episode / episode count
  T          Genre tab             o        Film order
  F          Favorites only        +/-      Next/previous episode
  /          Search titles         0-5      Rating
  f          Jump to title         w        Cycle status
                                   t        Cycle genre
OTHER                              *        Favorite
  n          New item              i        Image
  O          Quick links           x        Delete
  r          Reload
  L          Sign out
  q          Quit

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderDeleteConfirmation renders the delete confirmation modal
func (m Model) renderDeleteConfirmation() string {
	title := "this item"
	if items := m.items(); items != nil {
		if it, ok := items.Get(m.editID); ok && it.Title != "" {
			title = it.Title
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		styles.ModalTitleStyle.Render("Delete?"),
		styles.SubtitleStyle.Render(styles.Truncate(title, 40)),
		"",
		"[Y] Yes      [N] No",
	)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(body))
}

// renderLogoutConfirmation renders the sign-out confirmation modal
func (m Model) renderLogoutConfirmation() string {
	modal := `
              Sign Out?

  This will forget your saved login.
  Unsaved edits are discarded.

        [Y] Yes      [N] No
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// renderLinks renders the quick link picker
func (m Model) renderLinks() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Quick links"))
	b.WriteString("\n")
	for i, l := range m.Links {
		b.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("%d", i+1)))
		b.WriteString("  " + styles.TitleStyle.Render(l.Name))
		b.WriteString("  " + styles.DimStyle.Render(styles.Truncate(l.URL, 40)))
		b.WriteString("\n")
	}
	b.WriteString("\n" + styles.DimStyle.Render("esc to close"))

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(b.String()))
}
