package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/itemlist"
)

// handleKeyMsg processes keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmDelete:
		return m.handleConfirmDelete(msg)

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			return m, SignOutCmd(m.Sessions)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateLinks:
		return m.handleLinks(msg)

	case StateJump:
		return m.handleJump(msg)

	case StateEditing:
		return m.handleEditing(msg)

	case StateSearching:
		return m.handleSearching(msg)

	case StateImageInput:
		return m.handleImageInput(msg)
	}

	return m.handleBrowsing(msg)
}

func (m Model) handleBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if list, ok := m.List.Update(msg); ok {
		m.List = list
		m.Inspector.SetItem(m.List.Selected())
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.Filters.Search != "" {
			m.Filters.Search = ""
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, Keys.NextStatus):
		m.Filters.Status = cycleStatusFilter(m.Filters.Status, 1)
		m.refresh()
		return m, nil

	case key.Matches(msg, Keys.PrevStatus):
		m.Filters.Status = cycleStatusFilter(m.Filters.Status, -1)
		m.refresh()
		return m, nil

	case key.Matches(msg, Keys.NextGenre):
		m.Filters.Genre = cycleGenreFilter(m.Filters.Genre)
		m.refresh()
		return m, nil

	case key.Matches(msg, Keys.FavoriteOnly):
		m.Filters.FavoriteOnly = !m.Filters.FavoriteOnly
		m.refresh()
		return m, nil

	case key.Matches(msg, Keys.Search):
		m.State = StateSearching
		m.Input.Show("Search titles", m.Filters.Search, "Type to filter...")
		m.updateLayout()
		return m, nil

	case key.Matches(msg, Keys.Links):
		if len(m.Links) == 0 {
			return m, m.setStatus("No quick links configured")
		}
		m.State = StateLinks
		return m, nil

	case key.Matches(msg, Keys.Logout):
		m.State = StateConfirmLogout
		return m, nil
	}

	items := m.items()
	if items == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Jump):
		m.State = StateJump
		m.Omnibar.Show(items.Visible(domain.Filters{}))
		return m, nil

	case key.Matches(msg, Keys.Reload):
		return m, tea.Batch(m.setStatus("Reloading..."), ReloadCmd(items, m.session.UserID))

	case key.Matches(msg, Keys.New):
		return m, CreateItemCmd(items, m.Filters)
	}

	selected := m.List.Selected()
	if selected == nil {
		return m, nil
	}
	it := *selected
	ctx := context.Background()

	switch {
	case key.Matches(msg, Keys.EditTitle):
		m.startEdit(itemlist.FieldTitle)
	case key.Matches(msg, Keys.EditComment):
		m.startEdit(itemlist.FieldComment)
	case key.Matches(msg, Keys.EditSeason):
		m.startEdit(itemlist.FieldSeason)
	case key.Matches(msg, Keys.EditEpisode):
		m.startEdit(itemlist.FieldCurrentEpisode)
	case key.Matches(msg, Keys.EditTotal):
		m.startEdit(itemlist.FieldTotalEpisode)
	case key.Matches(msg, Keys.EditOrder):
		m.startEdit(itemlist.FieldMovieOrder)

	case key.Matches(msg, Keys.EpisodeUp):
		items.Update(ctx, it.ID, stepProgress(it, 1))
	case key.Matches(msg, Keys.EpisodeDown):
		items.Update(ctx, it.ID, stepProgress(it, -1))

	case key.Matches(msg, Keys.Rate):
		rating := int(msg.String()[0] - '0')
		items.Update(ctx, it.ID, domain.ItemPatch{Rating: &rating})

	case key.Matches(msg, Keys.CycleStatus):
		next := it.Status.Next()
		items.Update(ctx, it.ID, domain.ItemPatch{Status: &next})

	case key.Matches(msg, Keys.CycleGenre):
		next := it.EffectiveGenre().Next()
		patch := domain.ItemPatch{Genre: &next}
		if next == domain.GenreFilm && it.MovieOrder == nil {
			patch.MovieOrder = domain.SetInt(1)
		}
		items.Update(ctx, it.ID, patch)

	case key.Matches(msg, Keys.ToggleFavorite):
		fav := !it.Favorite
		items.Update(ctx, it.ID, domain.ItemPatch{Favorite: &fav})

	case key.Matches(msg, Keys.Image):
		m.editID = it.ID
		m.State = StateImageInput
		current := it.ImageURL
		if strings.HasPrefix(current, "data:") {
			current = ""
		}
		m.Input.Show("Image", current, "URL or file path")
		m.Input.SetHint("empty clears the image")
		m.updateLayout()
		return m, nil

	case key.Matches(msg, Keys.Delete):
		m.editID = it.ID
		m.State = StateConfirmDelete
		return m, nil

	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

// startEdit opens the prompt for a field of the selected item
func (m *Model) startEdit(field itemlist.Field) {
	items := m.items()
	selected := m.List.Selected()
	if items == nil || selected == nil {
		return
	}

	m.State = StateEditing
	m.editID = selected.ID
	m.editField = field

	m.Input.Show(fieldLabel(field), items.Drafts().Value(*selected, field), "")
	if field.Numeric() {
		m.Input.SetHint("empty clears the value")
	}
	m.Inspector.SetEditing(field)
	m.updateLayout()
}

func (m *Model) endEdit() {
	m.State = StateBrowsing
	m.Input.Hide()
	m.Inspector.SetEditing("")
	m.editID = ""
	m.editField = ""
	m.updateLayout()
	m.refresh()
}

func (m Model) handleEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.items()
	if items == nil {
		m.endEdit()
		return m, nil
	}
	drafts := items.Drafts()

	var cmd tea.Cmd
	var submitted bool
	m.Input, cmd, submitted = m.Input.Update(msg)

	if !m.Input.IsVisible() {
		drafts.Discard(m.editID, m.editField)
		m.endEdit()
		return m, nil
	}

	drafts.Set(m.editID, m.editField, m.Input.Value())

	if submitted {
		if err := items.CommitDraft(context.Background(), m.editID, m.editField); err != nil {
			return m, m.setError(ErrMsg{Err: err, Context: "saving " + fieldLabel(m.editField)})
		}
		m.endEdit()
		return m, nil
	}

	m.refresh()
	return m, cmd
}

func (m Model) handleSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "tab" && len(m.suggestions) > 0 {
		m.Input.SetValue(m.suggestions[0])
		m.Filters.Search = m.suggestions[0]
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	var submitted bool
	m.Input, cmd, submitted = m.Input.Update(msg)

	if !m.Input.IsVisible() {
		m.Filters.Search = ""
		m.State = StateBrowsing
		m.updateLayout()
		m.refresh()
		return m, nil
	}

	m.Filters.Search = m.Input.Value()
	if submitted {
		m.Input.Hide()
		m.State = StateBrowsing
		m.updateLayout()
	}
	m.refresh()
	return m, cmd
}

func (m Model) handleImageInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.Input, cmd, submitted = m.Input.Update(msg)

	if !m.Input.IsVisible() || submitted {
		input := m.Input.Value()
		id := m.editID
		m.Input.Hide()
		m.State = StateBrowsing
		m.editID = ""
		m.updateLayout()
		if submitted {
			return m, ResolveImageCmd(id, input)
		}
		return m, nil
	}
	return m, cmd
}

func (m Model) handleJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var selected bool
	m.Omnibar, cmd, selected = m.Omnibar.Update(msg)

	if selected {
		result := m.Omnibar.Selected()
		m.Omnibar.Hide()
		m.State = StateBrowsing
		if result != nil {
			m.refresh()
			if !m.List.SelectID(result.Item.ID) {
				// the item is outside the current view
				m.Filters = domain.Filters{}
				m.refresh()
				m.List.SelectID(result.Item.ID)
			}
			m.Inspector.SetItem(m.List.Selected())
		}
		return m, nil
	}

	if !m.Omnibar.IsVisible() {
		m.State = StateBrowsing
	}
	return m, cmd
}

func (m Model) handleConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		if items := m.items(); items != nil {
			title := ""
			if it, ok := items.Get(m.editID); ok {
				title = it.Title
			}
			items.Remove(context.Background(), m.editID)
			m.State = StateBrowsing
			m.editID = ""
			m.refresh()
			return m, m.setStatus("Deleted " + title)
		}
		m.State = StateBrowsing
	case key.Matches(msg, Keys.Deny):
		m.State = StateBrowsing
		m.editID = ""
	}
	return m, nil
}

func (m Model) handleLinks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.Escape) || key.Matches(msg, Keys.Quit) {
		m.State = StateBrowsing
		return m, nil
	}

	s := msg.String()
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return m, nil
	}
	idx := int(s[0] - '1')
	if idx >= len(m.Links) {
		return m, nil
	}
	m.State = StateBrowsing
	return m, OpenLinkCmd(m.Opener, m.Links[idx])
}

// cycleStatusFilter steps through "all" followed by every status
func cycleStatusFilter(current domain.Status, dir int) domain.Status {
	tabs := append([]domain.Status{""}, domain.Statuses...)
	return tabs[stepIndex(indexOf(tabs, current), dir, len(tabs))]
}

// cycleGenreFilter steps through "all" followed by every genre
func cycleGenreFilter(current domain.Genre) domain.Genre {
	tabs := append([]domain.Genre{""}, domain.Genres...)
	return tabs[stepIndex(indexOf(tabs, current), 1, len(tabs))]
}

func indexOf[T comparable](s []T, v T) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}

func stepIndex(i, dir, n int) int {
	return ((i+dir)%n + n) % n
}

// stepProgress moves the current episode, or the film order for films
func stepProgress(it domain.Item, dir int) domain.ItemPatch {
	if it.EffectiveGenre() == domain.GenreFilm {
		return domain.ItemPatch{MovieOrder: domain.SetInt(stepInt(it.MovieOrder, dir))}
	}
	return domain.ItemPatch{CurrentEpisode: domain.SetInt(stepInt(it.CurrentEpisode, dir))}
}

func stepInt(p *int, dir int) int {
	n := 0
	if p != nil {
		n = *p
	}
	return max(n+dir, 0)
}

func fieldLabel(f itemlist.Field) string {
	switch f {
	case itemlist.FieldTitle:
		return "Title"
	case itemlist.FieldComment:
		return "Comment"
	case itemlist.FieldSeason:
		return "Season"
	case itemlist.FieldCurrentEpisode:
		return "Current episode"
	case itemlist.FieldTotalEpisode:
		return "Episode count"
	case itemlist.FieldMovieOrder:
		return "Film order"
	}
	return string(f)
}
