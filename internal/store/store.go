package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/oklog/ulid/v2"
	bolt "go.etcd.io/bbolt"
)

// bucketUsers holds local credentials; every other bucket is a collection
var bucketUsers = []byte("users")

// BoltStore implements domain.DocumentStore on an embedded BoltDB file.
// Each collection is a bucket, each document a JSON value keyed by its ID.
type BoltStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access). In
	// memory-only mode this is the whole store.
	cache map[string][]byte
}

// NewBoltStore opens (or creates) the database at path. An empty path gives
// a memory-only store that forgets everything on exit.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return &BoltStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketUsers, []byte(domain.ItemsCollection)} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *BoltStore) getRaw(bucket []byte, key string) []byte {
	ck := cacheKey(bucket, key)

	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	// Writers hold mu across their transaction, so a value read here cannot
	// be overtaken by a newer one before it is cached.
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.cache[ck]; ok {
		return data
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data != nil {
		s.cache[ck] = data
	}
	return data
}

func (s *BoltStore) get(bucket []byte, key string, dest interface{}) (bool, error) {
	data := s.getRaw(bucket, key)
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (s *BoltStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return err
			}
			return b.Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	s.cache[cacheKey(bucket, key)] = data
	return nil
}

// modify rewrites the value at key in one step. fn receives the stored
// bytes and returns the replacement; it is never called for a missing key,
// in which case modify reports false.
func (s *BoltStore) modify(bucket []byte, key string, fn func(data []byte) ([]byte, error)) (bool, error) {
	ck := cacheKey(bucket, key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		data, ok := s.cache[ck]
		if !ok {
			return false, nil
		}
		next, err := fn(data)
		if err != nil {
			return true, err
		}
		s.cache[ck] = next
		return true, nil
	}

	var next []byte
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		var err error
		if next, err = fn(v); err != nil {
			return err
		}
		return b.Put([]byte(key), next)
	})
	if err != nil || !found {
		return found, err
	}

	s.cache[ck] = next
	return true, nil
}

func (s *BoltStore) delete(bucket []byte, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			if b == nil {
				return nil
			}
			return b.Delete([]byte(key))
		})
		if err != nil {
			return err
		}
	}

	delete(s.cache, cacheKey(bucket, key))
	return nil
}

// scan calls fn for every key in bucket, in key order
func (s *BoltStore) scan(bucket []byte, fn func(key string, data []byte) error) error {
	if s.db == nil {
		prefix := string(bucket) + ":"
		s.mu.RLock()
		keys := make([]string, 0)
		for k := range s.cache {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		snapshot := make([][]byte, len(keys))
		for i, k := range keys {
			snapshot[i] = s.cache[k]
		}
		s.mu.RUnlock()

		for i, k := range keys {
			if err := fn(strings.TrimPrefix(k, prefix), snapshot[i]); err != nil {
				return err
			}
		}
		return nil
	}

	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

// === Documents ===

func (s *BoltStore) QueryByEquality(ctx context.Context, collection, field string, value any) ([]domain.Document, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query value: %w", err)
	}

	var docs []domain.Document
	err = s.scan([]byte(collection), func(id string, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
		}
		got, err := json.Marshal(fields[field])
		if err != nil || !bytes.Equal(got, want) {
			return nil
		}
		docs = append(docs, domain.Document{ID: id, Fields: fields})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Create assigns a ULID so documents iterate in creation order
func (s *BoltStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := ulid.Make().String()
	if err := s.set([]byte(collection), id, fields); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

func (s *BoltStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ok, err := s.modify([]byte(collection), id, func(data []byte) ([]byte, error) {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
		}
		if doc == nil {
			doc = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			doc[k] = v
		}
		return json.Marshal(doc)
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrItemNotFound)
	}
	return nil
}

func (s *BoltStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(collection), id)
}
