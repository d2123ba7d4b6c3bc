// Package cache holds the JSON response cache in front of the read endpoints.
package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gridiron/ingestion/internal/metrics"
)

// Cache keys. Player buckets are cached per position filter.
const (
	KeyTeams         = "gridiron:teams"
	KeyGames         = "gridiron:games"
	KeyPlayersPrefix = "gridiron:players:"
)

// Cache stores JSON documents under string keys
type Cache interface {
	// GetJSON decodes the value under key into dest and reports whether it was present
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate deletes keys; a key ending in '*' removes every key with that prefix
	Invalidate(ctx context.Context, keys ...string) error
}

// PlayersKey returns the cache key for a position filter. Order and case of
// the filter do not matter.
func PlayersKey(positions []string) string {
	if len(positions) == 0 {
		return KeyPlayersPrefix + "all"
	}
	norm := make([]string, 0, len(positions))
	for _, p := range positions {
		norm = append(norm, strings.ToUpper(strings.TrimSpace(p)))
	}
	sort.Strings(norm)
	return KeyPlayersPrefix + strings.Join(norm, ",")
}

// Fetch serves key from the cache or calls load and stores its result. Cache
// errors are logged and never fail the read.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	var cached T
	start := time.Now()
	found, err := c.GetJSON(ctx, key, &cached)
	metrics.RecordCacheOperation("get", time.Since(start).Seconds())
	switch {
	case err != nil:
		log.Debug().Err(err).Str("key", key).Msg("Cache read failed, loading from store")
	case found:
		metrics.RecordCacheHit()
		return cached, nil
	default:
		metrics.RecordCacheMiss()
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := c.SetJSON(ctx, key, value, ttl); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return value, nil
}

// Noop is a cache that never stores anything
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (Noop) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Invalidate(context.Context, ...string) error               { return nil }
