package redisdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/oklog/ulid/v2"
)

func TestIndexKey(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
		ok    bool
	}{
		{"string", "u1", `watchlist:items:idx:userId:"u1"`, true},
		{"bool", true, `watchlist:items:idx:userId:true`, true},
		{"number", 3.0, "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := indexKey("items", "userId", tt.value)
			if got != tt.want || ok != tt.ok {
				t.Errorf("indexKey() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

// Runs against a real server when WATCHLIST_TEST_REDIS_ADDR is set.
func TestStore_Integration(t *testing.T) {
	addr := os.Getenv("WATCHLIST_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WATCHLIST_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, Config{Addr: addr}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	collection := "test-" + ulid.Make().String()
	user := "u-" + ulid.Make().String()

	id, err := s.Create(ctx, collection, map[string]any{"userId": user, "status": "watching", "season": 1})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Update(ctx, collection, id, map[string]any{"status": "completed", "season": nil}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stale, err := s.QueryByEquality(ctx, collection, "status", "watching")
	if err != nil || len(stale) != 0 {
		t.Errorf("old index still matches: %+v, %v", stale, err)
	}

	docs, err := s.QueryByEquality(ctx, collection, "userId", user)
	if err != nil || len(docs) != 1 {
		t.Fatalf("QueryByEquality() = %+v, %v", docs, err)
	}
	if _, ok := docs[0].Fields["season"]; ok {
		t.Error("cleared field still present")
	}

	other, err := s.Create(ctx, collection, map[string]any{"userId": user})
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(field string) {
			defer wg.Done()
			if err := s.Update(ctx, collection, other, map[string]any{field: true}); err != nil {
				t.Errorf("Update(%s) error = %v", field, err)
			}
		}(fmt.Sprintf("f%d", i))
	}
	wg.Wait()
	docs, err = s.QueryByEquality(ctx, collection, "userId", user)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range docs {
		if d.ID != other {
			continue
		}
		for i := 0; i < 8; i++ {
			if d.Fields[fmt.Sprintf("f%d", i)] != true {
				t.Errorf("concurrent update lost f%d: %v", i, d.Fields)
			}
		}
	}
	if err := s.Delete(ctx, collection, other); err != nil {
		t.Fatal(err)
	}

	if err := s.Update(ctx, collection, "missing", map[string]any{"a": "b"}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("Update(missing) error = %v", err)
	}

	if err := s.Delete(ctx, collection, id); err != nil {
		t.Fatal(err)
	}
	if docs, _ := s.QueryByEquality(ctx, collection, "userId", user); len(docs) != 0 {
		t.Errorf("deleted document still listed")
	}
}
