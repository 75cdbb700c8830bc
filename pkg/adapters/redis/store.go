package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/roguepath/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture scores index entries that never expire (2100-01-01).
const farFuture = 4102444800

// Store implements ports.GraphStore using Redis. Documents are stored as plain
// strings, with a sorted set indexing owners by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for stored graphs.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for stored graphs.
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
		prefix: "roguepath:graph:",
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(owner string) string {
	return s.prefix + owner
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the document and indexes the owner.
func (s *Store) Save(ctx context.Context, owner string, doc []byte) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(owner), doc, s.ttl)

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: owner,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the document.
func (s *Store) Load(ctx context.Context, owner string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(owner)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Delete removes the document and its index entry.
func (s *Store) Delete(ctx context.Context, owner string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(owner))
	pipe.ZRem(ctx, s.indexKey(), owner)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns owners with a live document, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired graphs: %w", err)
	}

	owners, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	return owners, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
