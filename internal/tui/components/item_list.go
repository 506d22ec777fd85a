package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/itemlist"
	"github.com/mmcdole/watchlist/internal/tui/styles"
)

// ItemList is the scrolling list of projected items
type ItemList struct {
	items  []domain.Item
	drafts *itemlist.Drafts
	cursor int
	offset int
	width  int
	height int
}

// NewItemList creates an empty list
func NewItemList() ItemList {
	return ItemList{}
}

// SetDrafts sets the pending edits shown in place of stored titles
func (l *ItemList) SetDrafts(d *itemlist.Drafts) {
	l.drafts = d
}

// SetItems replaces the rows, keeping the cursor on the same item when it
// is still present
func (l *ItemList) SetItems(items []domain.Item) {
	var selectedID string
	if it := l.Selected(); it != nil {
		selectedID = it.ID
	}
	l.items = items
	if selectedID == "" || !l.SelectID(selectedID) {
		l.clamp()
	}
}

// Items returns the current rows
func (l ItemList) Items() []domain.Item {
	return l.items
}

// Len returns the number of rows
func (l ItemList) Len() int {
	return len(l.items)
}

// Selected returns the item under the cursor, or nil when empty
func (l ItemList) Selected() *domain.Item {
	if l.cursor < 0 || l.cursor >= len(l.items) {
		return nil
	}
	it := l.items[l.cursor]
	return &it
}

// Cursor returns the cursor index
func (l ItemList) Cursor() int {
	return l.cursor
}

// SelectID moves the cursor to the item with the given id
func (l *ItemList) SelectID(id string) bool {
	for i, it := range l.items {
		if it.ID == id {
			l.cursor = i
			l.scrollToCursor()
			return true
		}
	}
	return false
}

// SetSize updates the component dimensions
func (l *ItemList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.scrollToCursor()
}

// Update handles navigation keys, returns true when the key was consumed
func (l ItemList) Update(msg tea.Msg) (ItemList, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, false
	}

	page := max(l.visibleRows(), 1)
	switch {
	case key.Matches(keyMsg, ItemListKeys.Up):
		l.move(-1)
	case key.Matches(keyMsg, ItemListKeys.Down):
		l.move(1)
	case key.Matches(keyMsg, ItemListKeys.Home):
		l.cursor = 0
		l.scrollToCursor()
	case key.Matches(keyMsg, ItemListKeys.End):
		l.cursor = len(l.items) - 1
		l.clamp()
	case key.Matches(keyMsg, ItemListKeys.HalfUp):
		l.move(-page / 2)
	case key.Matches(keyMsg, ItemListKeys.HalfDown):
		l.move(page / 2)
	case key.Matches(keyMsg, ItemListKeys.PageUp):
		l.move(-page)
	case key.Matches(keyMsg, ItemListKeys.PageDown):
		l.move(page)
	default:
		return l, false
	}
	return l, true
}

func (l *ItemList) move(delta int) {
	l.cursor += delta
	l.clamp()
}

func (l *ItemList) clamp() {
	if l.cursor >= len(l.items) {
		l.cursor = len(l.items) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.scrollToCursor()
}

func (l ItemList) visibleRows() int {
	return l.height
}

func (l *ItemList) scrollToCursor() {
	rows := l.visibleRows()
	if rows <= 0 {
		l.offset = 0
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the visible rows
func (l ItemList) View() string {
	if l.width <= 0 || l.height <= 0 {
		return ""
	}

	var lines []string
	end := min(l.offset+l.height, len(l.items))
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(l.items[i], i == l.cursor))
	}
	for len(lines) < l.height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (l ItemList) renderRow(it domain.Item, selected bool) string {
	title := it.Title
	if l.drafts != nil {
		title = l.drafts.Value(it, itemlist.FieldTitle)
	}

	fav := " "
	if it.Favorite {
		fav = styles.FavoriteChar
	}

	progress := it.Progress().Describe()
	stars := it.Stars()
	if it.Rating == 0 {
		stars = ""
	}

	// marker, fav, badge, gaps and right-hand columns
	fixed := 2 + 2 + 4 + 1 + 12 + 1 + 5 + 2
	titleWidth := max(l.width-fixed, 8)

	parts := []styles.RowPart{
		{Text: styles.StatusChar(it.Status) + " ", Foreground: styles.Color(styles.StatusColor(it.Status))},
		{Text: fav + " ", Foreground: styles.Color(styles.Accent)},
		{Text: styles.GenreBadge(it.EffectiveGenre()) + " ", Foreground: styles.Color(styles.DimGray)},
		{Text: styles.Pad(styles.Truncate(title, titleWidth), titleWidth) + " ", Bold: it.IsNew},
		{Text: fmt.Sprintf("%12s ", styles.Truncate(progress, 12))},
		{Text: styles.Pad(stars, 5), Foreground: styles.Color(styles.Yellow)},
	}
	return styles.RenderListRow(parts, selected, l.width)
}
