// Package redis stores cart snapshots in Redis.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/storefront/internal/domain/cart"
)

// DefaultTTL is how long an untouched snapshot is kept.
const DefaultTTL = 30 * 24 * time.Hour

var _ cart.Persister = (*CartStore)(nil)

// CartStore implements cart.Persister on Redis string keys. Every save
// refreshes the key's expiry.
type CartStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCartStore returns a CartStore using client. A non-positive ttl uses
// DefaultTTL.
func NewCartStore(client redis.Cmdable, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CartStore{client: client, ttl: ttl}
}

// NewClient parses a redis:// URL and returns a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return redis.NewClient(opts), nil
}

// Load returns the snapshot stored under key.
func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrNoSnapshot
		}
		return nil, errors.Wrapf(err, "get %s", key)
	}
	return data, nil
}

// Save overwrites the snapshot under key.
func (s *CartStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
