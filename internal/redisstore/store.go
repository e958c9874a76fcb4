// Package redisstore keeps a catalog in Redis so several planner instances
// can share one imported dataset.
package redisstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"tour-planner/internal/catalog"
	"tour-planner/internal/dataset"
)

// ErrNotFound is returned by Load and Meta when no catalog has been saved
// under the store's prefix.
var ErrNotFound = errors.New("redisstore: no catalog stored")

// Meta describes the last Save.
type Meta struct {
	Source  string    `json:"source"`
	SavedAt time.Time `json:"saved_at"`
}

// Store implements catalog.Source using Redis.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "tourplan:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) catalogKey() string {
	return s.prefix + "catalog"
}

func (s *Store) metaKey() string {
	return s.prefix + "meta"
}

// Save replaces the stored catalog. Document and meta are written in one
// MULTI/EXEC so readers never see a catalog without its meta.
func (s *Store) Save(ctx context.Context, cat *catalog.Catalog, source string) error {
	var buf bytes.Buffer
	if err := dataset.Write(&buf, cat); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.catalogKey(), buf.Bytes(), 0)
	pipe.HSet(ctx, s.metaKey(),
		"source", source,
		"saved_at", time.Now().UTC().Format(time.RFC3339),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves and rebuilds the stored catalog.
func (s *Store) Load(ctx context.Context) (*catalog.Catalog, error) {
	data, err := s.client.Get(ctx, s.catalogKey()).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load from redis: %w", err)
	}
	cat, err := dataset.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("stored catalog %s: %w", s.catalogKey(), err)
	}
	return cat, nil
}

// Meta returns the source and time of the last Save.
func (s *Store) Meta(ctx context.Context) (Meta, error) {
	var m Meta
	vals, err := s.client.HGetAll(ctx, s.metaKey()).Result()
	if err != nil {
		return m, fmt.Errorf("failed to read meta: %w", err)
	}
	if len(vals) == 0 {
		return m, ErrNotFound
	}
	m.Source = vals["source"]
	m.SavedAt, _ = time.Parse(time.RFC3339, vals["saved_at"])
	return m, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
