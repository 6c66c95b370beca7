package spacetraveling

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/cache"
)

const epochKey = "content:epoch"

// ContentCache keeps CMS content in a cache.Store. Entries are fresh for
// ttl and kept for staleTTL; a stale entry is served when reloading fails.
// Purge bumps an epoch that prefixes every key, so the whole cache is
// dropped without enumerating the store.
type ContentCache struct {
	store    cache.Store
	ttl      time.Duration
	staleTTL time.Duration
	group    singleflight.Group
	now      func() time.Time
	log      zerolog.Logger
}

// NewContentCache creates a ContentCache backed by the given store.
func NewContentCache(s cache.Store, ttl, staleTTL time.Duration, logger zerolog.Logger) *ContentCache {
	if staleTTL < ttl {
		staleTTL = ttl
	}
	return &ContentCache{store: s, ttl: ttl, staleTTL: staleTTL, now: time.Now, log: logger}
}

type cacheEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

func (c *ContentCache) epoch(ctx context.Context) uint64 {
	b, err := c.store.Get(ctx, epochKey)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn().Err(err).Msg("read cache epoch")
		}
		return 0
	}
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

// Purge invalidates every cached entry and returns the new epoch.
func (c *ContentCache) Purge(ctx context.Context) (uint64, error) {
	n := c.epoch(ctx) + 1
	if err := c.store.Set(ctx, epochKey, []byte(strconv.FormatUint(n, 10)), 0); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *ContentCache) lookup(ctx context.Context, key string) (*cacheEntry, bool) {
	b, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}
	var e cacheEntry
	if err := json.Unmarshal(b, &e); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("discarding corrupt cache entry")
		return nil, false
	}
	return &e, c.now().Sub(e.StoredAt) < c.ttl
}

func (c *ContentCache) save(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("encode cache entry")
		return
	}
	b, err := json.Marshal(cacheEntry{StoredAt: c.now(), Value: raw})
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, b, c.staleTTL); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// janitor sweeps expired entries every interval until stop is closed. Stores
// that expire entries themselves are left alone.
func (c *ContentCache) janitor(every time.Duration, stop <-chan struct{}) {
	p, ok := c.store.(cache.Pruner)
	if !ok {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.prune(p)
		}
	}
}

func (c *ContentCache) prune(p cache.Pruner) {
	n, err := p.Prune(context.Background())
	if err != nil {
		c.log.Warn().Err(err).Msg("cache prune failed")
		return
	}
	if n > 0 {
		c.log.Debug().Int64("removed", n).Msg("cache pruned")
	}
}

// cached returns the value stored under key, calling load when the entry is
// missing or no longer fresh. Concurrent misses for one key share a single
// load. When load fails and a stale entry exists it is returned instead,
// except for not-found errors, which always propagate.
func cached[T any](ctx context.Context, c *ContentCache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	full := "content:" + strconv.FormatUint(c.epoch(ctx), 10) + ":" + key

	entry, fresh := c.lookup(ctx, full)
	if entry != nil && fresh {
		var v T
		if err := json.Unmarshal(entry.Value, &v); err == nil {
			return v, nil
		}
		entry = nil
	}

	v, err, _ := c.group.Do(full, func() (any, error) {
		// One caller going away must not fail the others sharing this load.
		lctx := context.WithoutCancel(ctx)
		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		c.save(lctx, full, v)
		return v, nil
	})
	if err != nil {
		if entry != nil && !blog.IsNotFound(err) {
			var stale T
			if uerr := json.Unmarshal(entry.Value, &stale); uerr == nil {
				c.log.Warn().Err(err).Str("key", key).Msg("serving stale content")
				return stale, nil
			}
		}
		return zero, err
	}
	return v.(T), nil
}
