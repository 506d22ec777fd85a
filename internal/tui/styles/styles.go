package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/watchlist/internal/domain"
)

// Color palette
var (
	Accent     = lipgloss.Color("#F472B6")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
	Yellow     = lipgloss.Color("#FBBF24")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	StarStyle = lipgloss.NewStyle().
			Foreground(Yellow)
)

// Tab styles
var (
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Accent).
			Bold(true).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)

	SubTabStyle = lipgloss.NewStyle().
			Foreground(DimGray).
			Padding(0, 1)

	ActiveSubTabStyle = lipgloss.NewStyle().
				Foreground(Accent).
				Underline(true).
				Padding(0, 1)
)

// Panel styles
var (
	ListStyle = lipgloss.NewStyle().
			Padding(0, 1)

	InspectorStyle = lipgloss.NewStyle().
			Padding(0, 2)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent).
			Padding(1, 2).
			Background(SlateDark)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Accent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Badge styles
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Accent).
			Padding(0, 1)

	DimBadgeStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight).
			Padding(0, 1)
)

// Match highlight styles for jump results
var (
	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(Accent).
				Bold(true)

	MatchHighlightSelectedStyle = lipgloss.NewStyle().
					Foreground(Accent).
					Background(SlateLight).
					Bold(true)
)

// Status markers, one per list status
const (
	PlanChar      = "○"
	WatchingChar  = "◐"
	CompletedChar = "✓"
	DroppedChar   = "✗"
	FavoriteChar  = "♥"
)

// StatusColor returns the foreground used for a status marker
func StatusColor(s domain.Status) lipgloss.Color {
	switch s {
	case domain.StatusWatching:
		return Accent
	case domain.StatusCompleted:
		return Green
	case domain.StatusDropped:
		return Red
	default:
		return LightGray
	}
}

// StatusChar returns the unstyled marker for a status
func StatusChar(s domain.Status) string {
	switch s {
	case domain.StatusWatching:
		return WatchingChar
	case domain.StatusCompleted:
		return CompletedChar
	case domain.StatusDropped:
		return DroppedChar
	default:
		return PlanChar
	}
}

// GenreBadge returns a short fixed-width tag for a genre
func GenreBadge(g domain.Genre) string {
	switch g {
	case domain.GenreDrama:
		return "DRM"
	case domain.GenreFilm:
		return "FLM"
	default:
		return "ANI"
	}
}

// Truncate shortens s to width cells with an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 1 {
		return string(runes[:1])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Pad pads s with spaces to width cells
func Pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// RenderListRow renders a complete list row with uniform background when selected.
// Each part is styled separately so ANSI resets do not break the background.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight

	var b strings.Builder
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		switch {
		case part.Foreground != nil:
			style = style.Foreground(*part.Foreground)
		case selected:
			style = style.Foreground(White)
		default:
			style = style.Foreground(LightGray)
		}
		if part.Bold {
			style = style.Bold(true)
		}
		if selected {
			style = style.Background(bg)
		}
		b.WriteString(style.Render(part.Text))
		visibleLen += lipgloss.Width(part.Text)
	}

	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(bg)
	}

	// subtract 2 for left/right margin
	if pad := width - visibleLen - 2; pad > 0 {
		b.WriteString(marginStyle.Render(strings.Repeat(" ", pad)))
	}

	margin := marginStyle.Render(" ")
	return margin + b.String() + margin
}

// RowPart is a piece of a row with an optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Bold       bool
}

// Color returns a pointer for use in RowPart
func Color(c lipgloss.Color) *lipgloss.Color {
	return &c
}

// HighlightMatches renders text with the runes at the given byte offsets emphasized
func HighlightMatches(text string, matched []int, selected bool) string {
	base := lipgloss.NewStyle().Foreground(LightGray)
	hl := MatchHighlightStyle
	if selected {
		base = lipgloss.NewStyle().Foreground(White).Background(SlateLight)
		hl = MatchHighlightSelectedStyle
	}
	if len(matched) == 0 {
		return base.Render(text)
	}

	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	var b strings.Builder
	for i, r := range text {
		if set[i] {
			b.WriteString(hl.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}

// SpinnerFrames are the frames of the terminal spinner
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SpinnerStyle colors the spinner frame
var SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)
