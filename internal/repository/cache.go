package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	latestKey = "measurement:latest"

	// DefaultCacheTTL lets the entry expire when the sensor goes silent.
	DefaultCacheTTL = 24 * time.Hour
)

// ErrCacheMiss means the cache holds no latest measurement.
var ErrCacheMiss = errors.New("latest measurement not cached")

// Cache keeps the last stored measurement in Valkey (Redis).
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) StoreLatest(ctx context.Context, m Stored) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode latest measurement")
	}
	return errors.Wrap(c.rdb.Set(ctx, latestKey, data, c.ttl).Err(), "set latest measurement")
}

func (c *Cache) Latest(ctx context.Context) (Stored, error) {
	data, err := c.rdb.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Stored{}, ErrCacheMiss
	}
	if err != nil {
		return Stored{}, errors.Wrap(err, "get latest measurement")
	}

	var s Stored
	if err := json.Unmarshal(data, &s); err != nil {
		return Stored{}, errors.Wrap(err, "decode latest measurement")
	}
	return s, nil
}
