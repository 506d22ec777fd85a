// Package redisdoc stores documents as JSON strings in Redis with a set
// index per (field, value) pair for scalar string and bool fields.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "watchlist"

// Config holds connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store implements domain.DocumentStore on Redis
type Store struct {
	client *redis.Client
	logger *slog.Logger

	// mu serializes this process's read-modify-write calls so they never
	// trip each other's WATCH
	mu sync.Mutex
}

// Open connects and pings the server
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to connect to redis: %v", domain.ErrStoreOffline, err)
	}

	s := New(client, logger)
	s.logger.Info("redis connection successful", "addr", cfg.Addr)
	return s, nil
}

// New wraps an existing client
func New(client *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func docKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:doc:%s", keyPrefix, collection, id)
}

func idsKey(collection string) string {
	return fmt.Sprintf("%s:%s:ids", keyPrefix, collection)
}

func indexKey(collection, field string, value any) (string, bool) {
	switch value.(type) {
	case string, bool:
	default:
		return "", false
	}
	v, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s:%s:idx:%s:%s", keyPrefix, collection, field, v), true
}

func (s *Store) QueryByEquality(ctx context.Context, collection, field string, value any) ([]domain.Document, error) {
	var ids []string
	var err error
	key, indexed := indexKey(collection, field, value)
	if indexed {
		ids, err = s.client.SMembers(ctx, key).Result()
	} else {
		ids, err = s.client.SMembers(ctx, idsKey(collection)).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	raws, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	want, _ := json.Marshal(value)
	docs := make([]domain.Document, 0, len(ids))
	for i, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			// index points at a deleted document
			continue
		}
		fields := make(map[string]any)
		if err := json.Unmarshal([]byte(str), &fields); err != nil {
			s.logger.Warn("skipping undecodable document", "collection", collection, "id", ids[i], "error", err)
			continue
		}
		if got, _ := json.Marshal(fields[field]); string(got) != string(want) {
			continue
		}
		docs = append(docs, domain.Document{ID: ids[i], Fields: fields})
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := ulid.Make().String()
	doc := stripNulls(fields)
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, docKey(collection, id), data, 0)
		pipe.SAdd(ctx, idsKey(collection), id)
		for f, v := range doc {
			if key, ok := indexKey(collection, f, v); ok {
				pipe.SAdd(ctx, key, id)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

// Update merges fields under WATCH. A change by another writer in between
// fails the update with ErrConflict; it is not retried.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	key := docKey(collection, id)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrItemNotFound)
		}
		if err != nil {
			return err
		}

		current := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return fmt.Errorf("failed to decode document: %w", err)
		}

		merged := make(map[string]any, len(current)+len(fields))
		for k, v := range current {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		merged = stripNulls(merged)

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			for f := range fields {
				if old, ok := indexKey(collection, f, current[f]); ok {
					pipe.SRem(ctx, old, id)
				}
				if nv, ok := indexKey(collection, f, merged[f]); ok {
					pipe.SAdd(ctx, nv, id)
				}
			}
			return nil
		})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := docKey(collection, id)
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s/%s: %w", collection, id, err)
	}

	current := make(map[string]any)
	_ = json.Unmarshal([]byte(raw), &current)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, idsKey(collection), id)
		for f, v := range current {
			if idx, ok := indexKey(collection, f, v); ok {
				pipe.SRem(ctx, idx, id)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func stripNulls(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
