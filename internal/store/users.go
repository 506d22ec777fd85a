package store

import (
	"strings"
)

// UserRecord is a locally registered account
type UserRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

// normalizeEmail keys accounts case-insensitively
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetUser looks up an account by email
func (s *BoltStore) GetUser(email string) (*UserRecord, bool, error) {
	var rec UserRecord
	ok, err := s.get(bucketUsers, normalizeEmail(email), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rec, true, nil
}

// SaveUser stores an account, replacing any with the same email
func (s *BoltStore) SaveUser(rec UserRecord) error {
	rec.Email = normalizeEmail(rec.Email)
	return s.set(bucketUsers, rec.Email, rec)
}
