// Package backend wires the configured document store and auth provider.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/watchlist/internal/auth"
	"github.com/mmcdole/watchlist/internal/backend/firebase"
	"github.com/mmcdole/watchlist/internal/backend/postgres"
	"github.com/mmcdole/watchlist/internal/backend/redisdoc"
	"github.com/mmcdole/watchlist/internal/config"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/store"
)

const connectTimeout = 10 * time.Second

// Backend is a connected document store plus its auth provider
type Backend struct {
	Docs domain.DocumentStore
	Auth domain.AuthClient

	closers []func() error
}

// Close releases every connection the backend opened
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New connects the backend selected by cfg.Store.Backend. The firestore
// backend pairs with Firebase auth; the others keep accounts in the local
// bbolt file.
func New(ctx context.Context, cfg *config.Config, sessions auth.SessionStore, logger *slog.Logger) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	restored := cfg.Session()
	b := &Backend{}

	if cfg.Store.Backend == config.BackendFirestore {
		fa := firebase.NewAuth(cfg.Store.Firestore.APIKey, firebase.Endpoints{}, sessions, restored, logger)
		fs := firebase.NewFirestore(cfg.Store.Firestore.ProjectID, firebase.Endpoints{}, fa, logger)
		b.Auth = fa
		b.Docs = fs
		b.closers = append(b.closers, fs.Close)
		logger.Info("using firestore backend", "project", cfg.Store.Firestore.ProjectID)
		return b, nil
	}

	bolt, err := store.NewBoltStore(cfg.Store.Bolt.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	b.closers = append(b.closers, bolt.Close)
	b.Auth = auth.NewLocal(bolt, sessions, restored, logger)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Store.Backend {
	case config.BackendBolt:
		b.Docs = bolt

	case config.BackendPostgres:
		pg, err := postgres.Open(ctx, postgres.Config{
			DSN:      cfg.Store.Postgres.DSN,
			MaxConns: cfg.Store.Postgres.MaxConns,
			MinConns: cfg.Store.Postgres.MinConns,
		}, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Docs = pg
		b.closers = append(b.closers, pg.Close)

	case config.BackendRedis:
		rd, err := redisdoc.Open(ctx, redisdoc.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		}, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Docs = rd
		b.closers = append(b.closers, rd.Close)

	default:
		b.Close()
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}

	logger.Info("using document store", "backend", cfg.Store.Backend)
	return b, nil
}
