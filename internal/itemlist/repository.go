package itemlist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mmcdole/watchlist/internal/domain"
)

// Document field names. These match the records written by the web client.
const (
	fieldTitle          = "title"
	fieldStatus         = "status"
	fieldRating         = "rating"
	fieldComment        = "comment"
	fieldCurrentEpisode = "currentEpisode"
	fieldTotalEpisode   = "totalEpisode"
	fieldSeason         = "season"
	fieldMovieOrder     = "movieOrder"
	fieldGenre          = "genre"
	fieldFavorite       = "favorite"
	fieldIsNew          = "isNew"
	fieldImageURL       = "imageUrl"
	fieldUserID         = "userId"
)

// Repository implements domain.ItemRepository on top of a DocumentStore.
type Repository struct {
	docs       domain.DocumentStore
	collection string
}

// NewRepository creates a repository over the items collection
func NewRepository(docs domain.DocumentStore) *Repository {
	return &Repository{docs: docs, collection: domain.ItemsCollection}
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Item, error) {
	docs, err := r.docs.QueryByEquality(ctx, r.collection, fieldUserID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	items := make([]domain.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, DecodeItem(d))
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, item domain.Item) (string, error) {
	id, err := r.docs.Create(ctx, r.collection, EncodeItem(item))
	if err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id string, patch domain.ItemPatch) error {
	if err := r.docs.Update(ctx, r.collection, id, EncodePatch(patch)); err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, r.collection, id); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

// EncodeItem converts an item to document fields. The ID is not a field.
func EncodeItem(it domain.Item) map[string]any {
	return map[string]any{
		fieldTitle:          it.Title,
		fieldStatus:         string(it.Status),
		fieldRating:         it.Rating,
		fieldComment:        it.Comment,
		fieldCurrentEpisode: intValue(it.CurrentEpisode),
		fieldTotalEpisode:   intValue(it.TotalEpisode),
		fieldSeason:         intValue(it.Season),
		fieldMovieOrder:     intValue(it.MovieOrder),
		fieldGenre:          string(it.EffectiveGenre()),
		fieldFavorite:       it.Favorite,
		fieldIsNew:          it.IsNew,
		fieldImageURL:       it.ImageURL,
		fieldUserID:         it.UserID,
	}
}

// EncodePatch converts a partial update to the fields it touches
func EncodePatch(p domain.ItemPatch) map[string]any {
	m := make(map[string]any)
	if p.Title != nil {
		m[fieldTitle] = *p.Title
	}
	if p.Status != nil {
		m[fieldStatus] = string(*p.Status)
	}
	if p.Rating != nil {
		m[fieldRating] = *p.Rating
	}
	if p.Comment != nil {
		m[fieldComment] = *p.Comment
	}
	if p.CurrentEpisode != nil {
		m[fieldCurrentEpisode] = nullIntValue(*p.CurrentEpisode)
	}
	if p.TotalEpisode != nil {
		m[fieldTotalEpisode] = nullIntValue(*p.TotalEpisode)
	}
	if p.Season != nil {
		m[fieldSeason] = nullIntValue(*p.Season)
	}
	if p.MovieOrder != nil {
		m[fieldMovieOrder] = nullIntValue(*p.MovieOrder)
	}
	if p.Genre != nil {
		m[fieldGenre] = string(*p.Genre)
	}
	if p.Favorite != nil {
		m[fieldFavorite] = *p.Favorite
	}
	if p.IsNew != nil {
		m[fieldIsNew] = *p.IsNew
	}
	if p.ImageURL != nil {
		m[fieldImageURL] = *p.ImageURL
	}
	return m
}

// DecodeItem builds an item from a stored document. Unknown status values
// fall back to plan_to_watch and unknown genres to anime.
func DecodeItem(d domain.Document) domain.Item {
	f := d.Fields
	it := domain.Item{
		ID:             d.ID,
		Title:          stringField(f, fieldTitle),
		Comment:        stringField(f, fieldComment),
		ImageURL:       stringField(f, fieldImageURL),
		UserID:         stringField(f, fieldUserID),
		Favorite:       boolField(f, fieldFavorite),
		IsNew:          boolField(f, fieldIsNew),
		CurrentEpisode: intField(f, fieldCurrentEpisode),
		TotalEpisode:   intField(f, fieldTotalEpisode),
		Season:         intField(f, fieldSeason),
		MovieOrder:     intField(f, fieldMovieOrder),
	}
	if r := intField(f, fieldRating); r != nil {
		it.Rating = clampRating(*r)
	}
	if st, ok := domain.ParseStatus(stringField(f, fieldStatus)); ok {
		it.Status = st
	} else {
		it.Status = domain.StatusPlanToWatch
	}
	if g, ok := domain.ParseGenre(stringField(f, fieldGenre)); ok {
		it.Genre = g
	} else {
		it.Genre = domain.GenreAnime
	}
	return it
}

func intValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullIntValue(n domain.NullInt) any {
	if !n.Valid {
		return nil
	}
	return n.Int
}

func stringField(f map[string]any, key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

func boolField(f map[string]any, key string) bool {
	b, _ := f[key].(bool)
	return b
}

// intField accepts every numeric shape the backends produce: JSON numbers
// decode as float64 or json.Number, Firestore integers as int64 or strings.
func intField(f map[string]any, key string) *int {
	switch v := f[key].(type) {
	case int:
		return domain.IntPtr(v)
	case int64:
		return domain.IntPtr(int(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return domain.IntPtr(int(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return domain.IntPtr(int(n))
		}
		if fl, err := v.Float64(); err == nil {
			return domain.IntPtr(int(fl))
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return domain.IntPtr(n)
		}
	}
	return nil
}
