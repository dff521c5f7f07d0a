package httputil

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/okrtree/pkg/cache"
)

// Cache stores JSON-marshalable values in a byte-oriented backend.
//
// Use [Cache.Namespace] to create scoped views that prefix keys, avoiding
// collisions between endpoints:
//
//	okrs := c.Namespace("okrs")
//	users := c.Namespace("users")
type Cache struct {
	backend   cache.Cache
	keyer     cache.Keyer
	ttl       time.Duration
	namespace string
}

// NewCache wraps backend. A nil keyer uses [cache.DefaultKeyer]; a nil
// backend never stores anything.
func NewCache(backend cache.Cache, keyer cache.Keyer, ttl time.Duration) *Cache {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cache{backend: backend, keyer: keyer, ttl: ttl}
}

// TTL returns the time-to-live applied on Set.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get looks up key and unmarshals the entry into v.
//
//   - (true, nil): hit, v is populated
//   - (false, nil): miss, v is unchanged
//   - (false, err): backend or decode failure
func (c *Cache) Get(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := c.backend.Get(ctx, c.key(key))
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Set marshals v and stores it under key.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, c.key(key), data, c.ttl)
}

// Namespace returns a view whose keys are scoped under ns. Calls chain:
// c.Namespace("a").Namespace("b") scopes under "a:b".
func (c *Cache) Namespace(ns string) *Cache {
	out := *c
	if out.namespace == "" {
		out.namespace = ns
	} else {
		out.namespace += ":" + ns
	}
	return &out
}

func (c *Cache) key(key string) string {
	return c.keyer.HTTPKey(c.namespace, key)
}
