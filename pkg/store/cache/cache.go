// Package cache provides a Redis read-through cache over a directory store.
// Account lookups are cached; searches and attribute reads always hit the
// backing store because their results depend on the dynamic field schema.
// Writes invalidate the affected account.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/castlegateit/memberdir/pkg/store"
)

// AccountCache wraps a DirectoryStore with Redis caching of account reads.
type AccountCache struct {
	store store.DirectoryStore
	redis *redis.Client
	ttl   time.Duration
}

// New connects to Redis and returns a caching wrapper around backing.
func New(backing store.DirectoryStore, cfg store.Config) (*AccountCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &AccountCache{store: backing, redis: client, ttl: ttl}, nil
}

// NewWithClient wraps backing using an existing Redis client. Used by tests.
func NewWithClient(backing store.DirectoryStore, client *redis.Client, ttl time.Duration) *AccountCache {
	return &AccountCache{store: backing, redis: client, ttl: ttl}
}

// Close closes the Redis connection.
func (c *AccountCache) Close() error {
	return c.redis.Close()
}

func accountKey(id int64) string {
	return fmt.Sprintf("account:%d", id)
}

// Search passes through to the backing store.
func (c *AccountCache) Search(ctx context.Context, query store.Query) ([]store.Row, error) {
	return c.store.Search(ctx, query)
}

// AccountByID returns an account, trying the cache first.
func (c *AccountCache) AccountByID(ctx context.Context, id int64) (*store.Account, error) {
	if cached, err := c.redis.Get(ctx, accountKey(id)).Result(); err == nil {
		var account store.Account
		if err := json.Unmarshal([]byte(cached), &account); err == nil {
			return &account, nil
		}
	}

	account, err := c.store.AccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(account); err == nil {
		c.redis.Set(ctx, accountKey(account.ID), data, c.ttl)
	}

	return account, nil
}

// AccountByEmail passes through and primes the by-ID cache.
func (c *AccountCache) AccountByEmail(ctx context.Context, email string) (*store.Account, error) {
	account, err := c.store.AccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, account)
	return account, nil
}

// AccountByLogin passes through and primes the by-ID cache.
func (c *AccountCache) AccountByLogin(ctx context.Context, login string) (*store.Account, error) {
	account, err := c.store.AccountByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, account)
	return account, nil
}

// AttributeValues always reads through to the store: the authoritative
// multi-value read path must not serve stale values.
func (c *AccountCache) AttributeValues(ctx context.Context, id int64, key string) ([]string, error) {
	return c.store.AttributeValues(ctx, id, key)
}

// SetAttribute writes through and invalidates the account.
func (c *AccountCache) SetAttribute(ctx context.Context, id int64, key, value string) error {
	if err := c.store.SetAttribute(ctx, id, key, value); err != nil {
		return err
	}
	c.redis.Del(ctx, accountKey(id))
	return nil
}

// CreateAccount writes through.
func (c *AccountCache) CreateAccount(ctx context.Context, account *store.Account) error {
	return c.store.CreateAccount(ctx, account)
}

// UpdateAccount writes through and invalidates the account.
func (c *AccountCache) UpdateAccount(ctx context.Context, account *store.Account) error {
	if err := c.store.UpdateAccount(ctx, account); err != nil {
		return err
	}
	c.redis.Del(ctx, accountKey(account.ID))
	return nil
}

func (c *AccountCache) prime(ctx context.Context, account *store.Account) {
	if data, err := json.Marshal(account); err == nil {
		c.redis.Set(ctx, accountKey(account.ID), data, c.ttl)
	}
}
