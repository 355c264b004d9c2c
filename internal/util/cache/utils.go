package cache_utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const (
	DefaultCacheTimeout = 10 * time.Second
	DefaultCacheExpiry  = 10 * time.Minute
)

// CacheUtil stores JSON-encoded values of T in Valkey under a key prefix.
// Every call is bounded by its own timeout.
type CacheUtil[T any] struct {
	client  valkey.Client
	prefix  string
	timeout time.Duration
	expiry  time.Duration
}

func NewCacheUtil[T any](client valkey.Client, prefix string) *CacheUtil[T] {
	return &CacheUtil[T]{
		client:  client,
		prefix:  prefix,
		timeout: DefaultCacheTimeout,
		expiry:  DefaultCacheExpiry,
	}
}

// WithExpiry returns a copy that stores items for d.
func (c *CacheUtil[T]) WithExpiry(d time.Duration) *CacheUtil[T] {
	copied := *c
	copied.expiry = d
	return &copied
}

// TestCacheConnection writes, reads back and deletes a test value.
func TestCacheConnection(client valkey.Client) error {
	if client == nil {
		return errors.New("cache is not configured")
	}

	roundTrip := NewCacheUtil[string](client, "healthcheck:").WithExpiry(time.Minute)
	const key = "roundtrip"
	want := "ok"

	if err := roundTrip.Set(key, &want); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}

	got := roundTrip.Get(key)
	if got == nil || *got != want {
		return errors.New("cache read did not return the written value")
	}

	if err := roundTrip.Invalidate(key); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	if roundTrip.Get(key) != nil {
		return errors.New("cache delete did not remove the value")
	}

	return nil
}

// Get returns nil on a miss, on a Valkey error and on a value that no
// longer decodes into T.
func (c *CacheUtil[T]) Get(key string) *T {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build()).AsBytes()
	if err != nil {
		return nil
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil
	}

	return &item
}

func (c *CacheUtil[T]) Set(key string, item *T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.client.Do(ctx, c.client.B().Set().Key(c.key(key)).Value(string(data)).Ex(c.expiry).Build()).Error()
}

func (c *CacheUtil[T]) Invalidate(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.client.Do(ctx, c.client.B().Del().Key(c.key(key)).Build()).Error()
}

func (c *CacheUtil[T]) key(key string) string {
	return c.prefix + key
}
