package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rnncast:prediction:"

// RedisStore caches predictions in Redis with TTL-based expiry so that
// several service replicas share one cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.Mutex
}

// NewRedisStore connects to Redis and verifies the connection with PING.
//
// A ttl of 0 defaults to one hour.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}
	if ttl == 0 {
		ttl = time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// Put stores an entry under "rnncast:prediction:{key}".
func (r *RedisStore) Put(ctx context.Context, e Entry) error {
	if e.Key == "" {
		return errors.New("entry key cannot be empty")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+e.Key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store entry in redis: %w", err)
	}
	return nil
}

// Get returns the entry stored under key. A missing or expired key is
// reported as found == false with a nil error.
func (r *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if key == "" {
		return Entry{}, false, errors.New("entry key cannot be empty")
	}

	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to get entry from redis: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return e, true, nil
}

// Close closes the Redis client. It is safe to call more than once.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}

	err := r.client.Close()
	r.client = nil
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

// Ping checks the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
