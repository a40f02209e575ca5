// Package cache implements the FIM completion cache (A4): a process-wide,
// FIFO-bounded cache keyed on the text surrounding the cursor, with an
// optional Redis-backed mirror for sharing entries across processes. Ported
// from the original implementation's completion_cache.rs (see
// original_source/refact-agent/engine/src/completion_cache.rs), which keys a
// cache entry on the lines preceding the cursor plus a "multiline"/
// "singleline" discriminator and evicts in insertion order once an entry
// count cap is reached.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// maxEntries bounds the in-memory map (CACHE_ENTRIES in the original).
	maxEntries = 500
	// maxKeyChars bounds the size of the prefix half of a Key (CACHE_KEY_CHARS
	// in the original): at 500 entries this caps memory at roughly 2.5M runes.
	maxKeyChars = 5000
)

// Key identifies a cache entry: Prefix is the text immediately before the
// cursor (trimmed to maxKeyChars, keeping the tail), and Part is a
// discriminator such as "multiline"/"singleline" that keeps completions
// requested in different modes from colliding on an otherwise identical
// prefix.
type Key struct {
	Prefix string
	Part   string
}

func (k Key) truncated() Key {
	r := []rune(k.Prefix)
	if len(r) <= maxKeyChars {
		return k
	}
	return Key{Prefix: string(r[len(r)-maxKeyChars:]), Part: k.Part}
}

// Entry is a cached completion payload plus the model that produced it.
type Entry struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
	Model        string `json:"model"`
}

// Mirror is an optional out-of-process store, implemented by a Redis client
// in production and by nothing at all in tests or single-process runs.
type Mirror interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry, ttl time.Duration) error
}

// Cache is a FIFO-bounded, mutex-protected completion cache. The zero value
// is not usable; construct with New.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	order   []Key

	mirror Mirror
	ttl    time.Duration
}

// New constructs an empty Cache. mirror may be nil to disable the
// out-of-process mirror entirely.
func New(mirror Mirror, mirrorTTL time.Duration) *Cache {
	if mirrorTTL <= 0 {
		mirrorTTL = 15 * time.Minute
	}
	return &Cache{
		entries: make(map[Key]Entry),
		mirror:  mirror,
		ttl:     mirrorTTL,
	}
}

// Get returns the cached entry for key, checking the in-memory map first and
// falling back to the mirror (if any) on a miss.
func (c *Cache) Get(ctx context.Context, key Key) (Entry, bool) {
	key = key.truncated()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e, true
	}

	if c.mirror == nil {
		return Entry{}, false
	}
	mirrored, ok, err := c.mirror.Get(ctx, mirrorKey(key))
	if err != nil || !ok {
		return Entry{}, false
	}
	return mirrored, true
}

// Put inserts an entry, evicting the oldest entries in insertion order once
// maxEntries is exceeded, and mirrors the entry out-of-process (if a mirror
// is configured). An existing entry for key is left untouched, matching the
// original's or_insert semantics: the first completion cached for a given
// cursor context wins.
func (c *Cache) Put(ctx context.Context, key Key, e Entry) {
	key = key.truncated()

	inserted := false
	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		inserted = true
		c.entries[key] = e
		c.order = append(c.order, key)
		for len(c.order) > maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.mu.Unlock()

	if inserted && c.mirror != nil {
		_ = c.mirror.Put(ctx, mirrorKey(key), e, c.ttl)
	}
}

func mirrorKey(k Key) string {
	return k.Part + "\x00" + k.Prefix
}

// RedisMirror adapts a *redis.Client to the Mirror interface, JSON-encoding
// entries as the stored value.
type RedisMirror struct {
	Client *redis.Client
}

func (m RedisMirror) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := m.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (m RedisMirror) Put(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return m.Client.Set(ctx, key, raw, ttl).Err()
}
