package domain

// NullInt is a write to a nullable integer field. Valid=false clears it.
type NullInt struct {
	Int   int
	Valid bool
}

// SetInt returns a NullInt holding n
func SetInt(n int) *NullInt {
	return &NullInt{Int: n, Valid: true}
}

// ClearInt returns a NullInt that unsets the field
func ClearInt() *NullInt {
	return &NullInt{}
}

// Ptr converts the write to the in-memory representation
func (n NullInt) Ptr() *int {
	if !n.Valid {
		return nil
	}
	return IntPtr(n.Int)
}

// ItemPatch is a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Title          *string
	Status         *Status
	Rating         *int
	Comment        *string
	CurrentEpisode *NullInt
	TotalEpisode   *NullInt
	Season         *NullInt
	MovieOrder     *NullInt
	Genre          *Genre
	Favorite       *bool
	IsNew          *bool
	ImageURL       *string
}

// IsEmpty reports whether the patch changes nothing
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Status == nil && p.Rating == nil && p.Comment == nil &&
		p.CurrentEpisode == nil && p.TotalEpisode == nil && p.Season == nil &&
		p.MovieOrder == nil && p.Genre == nil && p.Favorite == nil &&
		p.IsNew == nil && p.ImageURL == nil
}

// ApplyTo merges the patch into it
func (p ItemPatch) ApplyTo(it *Item) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	if p.Rating != nil {
		it.Rating = *p.Rating
	}
	if p.Comment != nil {
		it.Comment = *p.Comment
	}
	if p.CurrentEpisode != nil {
		it.CurrentEpisode = p.CurrentEpisode.Ptr()
	}
	if p.TotalEpisode != nil {
		it.TotalEpisode = p.TotalEpisode.Ptr()
	}
	if p.Season != nil {
		it.Season = p.Season.Ptr()
	}
	if p.MovieOrder != nil {
		it.MovieOrder = p.MovieOrder.Ptr()
	}
	if p.Genre != nil {
		it.Genre = *p.Genre
	}
	if p.Favorite != nil {
		it.Favorite = *p.Favorite
	}
	if p.IsNew != nil {
		it.IsNew = *p.IsNew
	}
	if p.ImageURL != nil {
		it.ImageURL = *p.ImageURL
	}
}
