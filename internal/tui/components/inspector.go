package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/itemlist"
	"github.com/mmcdole/watchlist/internal/tui/styles"
)

// Inspector displays the fields of the selected item. Values come from the
// pending edits when there are any.
type Inspector struct {
	item    *domain.Item
	drafts  *itemlist.Drafts
	editing itemlist.Field
	width   int
	height  int
}

// NewInspector creates a new inspector component
func NewInspector() Inspector {
	return Inspector{}
}

// SetItem sets the item to display
func (i *Inspector) SetItem(item *domain.Item) {
	i.item = item
}

// SetDrafts sets the pending edits to read values from
func (i *Inspector) SetDrafts(d *itemlist.Drafts) {
	i.drafts = d
}

// SetEditing marks the field being edited, or "" for none
func (i *Inspector) SetEditing(f itemlist.Field) {
	i.editing = f
}

// SetSize updates the component dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
}

// HasItem returns true if there is an item to display
func (i Inspector) HasItem() bool {
	return i.item != nil
}

// View renders the component
func (i Inspector) View() string {
	style := styles.InactiveBorder
	if i.editing != "" {
		style = styles.ActiveBorder
	}

	contentWidth := max(i.width-6, 10)

	var body string
	if i.item == nil {
		body = styles.DimStyle.Render("No item selected")
	} else {
		body = i.render(*i.item, contentWidth)
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(i.width-frameW, 0)).
		Height(max(i.height-frameH, 0)).
		Render(styles.InspectorStyle.Render(body))
}

func (i Inspector) value(it domain.Item, f itemlist.Field) string {
	if i.drafts == nil {
		return itemlist.FieldText(it, f)
	}
	return i.drafts.Value(it, f)
}

func (i Inspector) render(it domain.Item, width int) string {
	var b strings.Builder

	title := i.value(it, itemlist.FieldTitle)
	titleStyle := styles.TitleStyle
	if i.editing == itemlist.FieldTitle {
		titleStyle = titleStyle.Foreground(styles.Accent)
	}
	b.WriteString(titleStyle.Render(wordWrap(title, width)))
	b.WriteString("\n")

	var badges []string
	badges = append(badges, styles.DimBadgeStyle.Render(it.EffectiveGenre().Label()))
	statusBadge := lipgloss.NewStyle().
		Foreground(styles.White).
		Background(styles.StatusColor(it.Status)).
		Padding(0, 1).
		Render(it.Status.Label())
	badges = append(badges, statusBadge)
	if it.Favorite {
		badges = append(badges, styles.BadgeStyle.Render(styles.FavoriteChar+" Favorite"))
	}
	if it.IsNew {
		badges = append(badges, styles.DimBadgeStyle.Render("NEW"))
	}
	b.WriteString("\n" + strings.Join(badges, " ") + "\n\n")

	b.WriteString(i.row("Rating", styles.StarStyle.Render(it.Stars()), ""))

	if it.EffectiveGenre() == domain.GenreFilm {
		b.WriteString(i.row("Order", i.value(it, itemlist.FieldMovieOrder), itemlist.FieldMovieOrder))
	} else {
		b.WriteString(i.row("Season", i.value(it, itemlist.FieldSeason), itemlist.FieldSeason))
		b.WriteString(i.row("Episode", i.value(it, itemlist.FieldCurrentEpisode), itemlist.FieldCurrentEpisode))
		b.WriteString(i.row("Episodes", i.value(it, itemlist.FieldTotalEpisode), itemlist.FieldTotalEpisode))
	}
	b.WriteString(i.row("Image", describeImage(it.ImageURL, width-12), ""))

	b.WriteString("\n")
	label := styles.DimStyle
	if i.editing == itemlist.FieldComment {
		label = styles.AccentStyle
	}
	b.WriteString(label.Render("Comment"))
	b.WriteString("\n")
	if comment := i.value(it, itemlist.FieldComment); comment != "" {
		b.WriteString(styles.SubtitleStyle.Render(wordWrap(comment, width)))
	} else {
		b.WriteString(styles.DimStyle.Render("—"))
	}

	return b.String()
}

func (i Inspector) row(label, value string, field itemlist.Field) string {
	labelStyle := styles.DimStyle
	if field != "" && field == i.editing {
		labelStyle = styles.AccentStyle
	}
	if value == "" {
		value = styles.DimStyle.Render("—")
	}
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + value + "\n"
}

func describeImage(url string, width int) string {
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "data:"):
		return fmt.Sprintf("embedded (%d KB)", len(url)/1024)
	default:
		return styles.Truncate(url, width)
	}
}

// wordWrap wraps text at word boundaries to the given width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for n, para := range strings.Split(text, "\n") {
		if n > 0 {
			result.WriteString("\n")
		}
		lineLen := 0
		for _, word := range strings.Fields(para) {
			wordLen := lipgloss.Width(word)
			if lineLen > 0 && lineLen+wordLen+1 > width {
				result.WriteString("\n")
				lineLen = 0
			}
			if lineLen > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wordLen
		}
	}
	return result.String()
}
