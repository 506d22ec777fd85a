package itemlist

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mmcdole/watchlist/internal/domain"
)

// Field names an editable text field of an item
type Field string

const (
	FieldTitle          Field = "title"
	FieldComment        Field = "comment"
	FieldSeason         Field = "season"
	FieldCurrentEpisode Field = "currentEpisode"
	FieldTotalEpisode   Field = "totalEpisode"
	FieldMovieOrder     Field = "movieOrder"
)

// Numeric reports whether the field holds a nullable integer
func (f Field) Numeric() bool {
	switch f {
	case FieldSeason, FieldCurrentEpisode, FieldTotalEpisode, FieldMovieOrder:
		return true
	}
	return false
}

type draftKey struct {
	id    string
	field Field
}

// Drafts holds uncommitted text edits keyed by item and field. Reads prefer
// the draft over the authoritative item until the draft is committed or
// discarded.
type Drafts struct {
	mu    sync.RWMutex
	edits map[draftKey]string
}

// NewDrafts creates an empty edit buffer
func NewDrafts() *Drafts {
	return &Drafts{edits: make(map[draftKey]string)}
}

// Set records pending text for a field
func (d *Drafts) Set(id string, field Field, text string) {
	d.mu.Lock()
	d.edits[draftKey{id, field}] = text
	d.mu.Unlock()
}

// Get returns the pending text for a field, if any
func (d *Drafts) Get(id string, field Field) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	text, ok := d.edits[draftKey{id, field}]
	return text, ok
}

// Value returns the text to display for a field
func (d *Drafts) Value(it domain.Item, field Field) string {
	if text, ok := d.Get(it.ID, field); ok {
		return text
	}
	return FieldText(it, field)
}

// Discard drops the pending text for a field
func (d *Drafts) Discard(id string, field Field) {
	d.mu.Lock()
	delete(d.edits, draftKey{id, field})
	d.mu.Unlock()
}

// DiscardItem drops every pending edit for an item
func (d *Drafts) DiscardItem(id string) {
	d.mu.Lock()
	for k := range d.edits {
		if k.id == id {
			delete(d.edits, k)
		}
	}
	d.mu.Unlock()
}

// Clear drops every pending edit
func (d *Drafts) Clear() {
	d.mu.Lock()
	d.edits = make(map[draftKey]string)
	d.mu.Unlock()
}

// Len returns the number of pending edits
func (d *Drafts) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.edits)
}

// Commit turns a pending edit into a patch and removes it. ok is false when
// there was nothing pending. A numeric draft that does not parse is kept and
// reported as an error.
func (d *Drafts) Commit(id string, field Field) (patch domain.ItemPatch, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := draftKey{id, field}
	text, ok := d.edits[key]
	if !ok {
		return domain.ItemPatch{}, false, nil
	}

	patch, err = FieldPatch(field, text)
	if err != nil {
		return domain.ItemPatch{}, true, err
	}
	delete(d.edits, key)
	return patch, true, nil
}

// FieldPatch parses text for a field into a patch. Committing a title also
// clears the new-item flag. Empty numeric text means "unset".
func FieldPatch(field Field, text string) (domain.ItemPatch, error) {
	var p domain.ItemPatch
	switch field {
	case FieldTitle:
		notNew := false
		p.Title = &text
		p.IsNew = &notNew
	case FieldComment:
		p.Comment = &text
	case FieldSeason, FieldCurrentEpisode, FieldTotalEpisode, FieldMovieOrder:
		n, err := parseNullInt(text)
		if err != nil {
			return p, fmt.Errorf("invalid %s: %w", field, err)
		}
		switch field {
		case FieldSeason:
			p.Season = n
		case FieldCurrentEpisode:
			p.CurrentEpisode = n
		case FieldTotalEpisode:
			p.TotalEpisode = n
		case FieldMovieOrder:
			p.MovieOrder = n
		}
	default:
		return p, fmt.Errorf("unknown field %q", field)
	}
	return p, nil
}

// FieldText formats the authoritative value of a field for editing
func FieldText(it domain.Item, field Field) string {
	switch field {
	case FieldTitle:
		return it.Title
	case FieldComment:
		return it.Comment
	case FieldSeason:
		return intText(it.Season)
	case FieldCurrentEpisode:
		return intText(it.CurrentEpisode)
	case FieldTotalEpisode:
		return intText(it.TotalEpisode)
	case FieldMovieOrder:
		return intText(it.MovieOrder)
	}
	return ""
}

func parseNullInt(text string) (*domain.NullInt, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ClearInt(), nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, err
	}
	return domain.SetInt(n), nil
}

func intText(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
