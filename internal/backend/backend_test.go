package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mmcdole/watchlist/internal/auth"
	"github.com/mmcdole/watchlist/internal/backend/firebase"
	"github.com/mmcdole/watchlist/internal/config"
	"github.com/mmcdole/watchlist/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantErr  bool
		wantAuth any
		wantDocs any
	}{
		{
			name:     "bolt",
			mutate:   func(c *config.Config) {},
			wantAuth: &auth.Local{},
			wantDocs: &store.BoltStore{},
		},
		{
			name: "firestore",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendFirestore
				c.Store.Firestore = config.FirestoreConfig{ProjectID: "demo", APIKey: "k"}
			},
			wantAuth: &firebase.Auth{},
			wantDocs: &firebase.Firestore{},
		},
		{
			name:    "invalid",
			mutate:  func(c *config.Config) { c.Store.Backend = config.BackendPostgres },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Store.Bolt.Path = filepath.Join(t.TempDir(), "watchlist.db")
			tt.mutate(cfg)

			b, err := New(context.Background(), cfg, nil, testLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer b.Close()

			switch tt.wantAuth.(type) {
			case *auth.Local:
				if _, ok := b.Auth.(*auth.Local); !ok {
					t.Errorf("Auth = %T", b.Auth)
				}
			case *firebase.Auth:
				if _, ok := b.Auth.(*firebase.Auth); !ok {
					t.Errorf("Auth = %T", b.Auth)
				}
			}
			switch tt.wantDocs.(type) {
			case *store.BoltStore:
				if _, ok := b.Docs.(*store.BoltStore); !ok {
					t.Errorf("Docs = %T", b.Docs)
				}
			case *firebase.Firestore:
				if _, ok := b.Docs.(*firebase.Firestore); !ok {
					t.Errorf("Docs = %T", b.Docs)
				}
			}
		})
	}
}
