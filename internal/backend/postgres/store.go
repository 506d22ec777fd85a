// Package postgres stores documents as JSONB rows, one table per collection.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/oklog/ulid/v2"
)

// Config holds connection settings
type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Store implements domain.DocumentStore on PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	mu     sync.Mutex
	tables map[string]bool // collections whose table is known to exist
}

// Open connects and pings the database
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("failed to ping database", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreOffline, err)
	}

	logger.Info("database connection successful")
	return &Store{pool: pool, logger: logger, tables: make(map[string]bool)}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	s.logger.Info("database connection closed")
	return nil
}

func tableName(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}

func (s *Store) ensureTable(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[collection] {
		return nil
	}

	table := tableName(collection)
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         TEXT PRIMARY KEY,
		doc        JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, table)
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	s.tables[collection] = true
	return nil
}

func (s *Store) QueryByEquality(ctx context.Context, collection, field string, value any) ([]domain.Document, error) {
	if err := s.ensureTable(ctx, collection); err != nil {
		return nil, err
	}

	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query value: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE doc -> $1 = $2::jsonb ORDER BY created_at`, tableName(collection))
	rows, err := s.pool.Query(ctx, query, field, string(want))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		fields := make(map[string]any)
		if err := json.Unmarshal(raw, &fields); err != nil {
			s.logger.Warn("skipping undecodable document", "collection", collection, "id", id, "error", err)
			continue
		}
		docs = append(docs, domain.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := s.ensureTable(ctx, collection); err != nil {
		return "", err
	}

	doc, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := ulid.Make().String()
	stmt := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, jsonb_strip_nulls($2::jsonb))`, tableName(collection))
	if _, err := s.pool.Exec(ctx, stmt, id, string(doc)); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

// Update merges fields into the stored document. Null values are stripped,
// which clears those fields.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.ensureTable(ctx, collection); err != nil {
		return err
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}

	stmt := fmt.Sprintf(`UPDATE %s SET doc = jsonb_strip_nulls(doc || $2::jsonb), updated_at = now() WHERE id = $1`, tableName(collection))
	tag, err := s.pool.Exec(ctx, stmt, id, string(patch))
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrItemNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.ensureTable(ctx, collection); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tableName(collection))
	if _, err := s.pool.Exec(ctx, stmt, id); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}
