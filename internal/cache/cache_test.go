package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache keeps encoded values in memory
type mapCache struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func newMapCache() *mapCache { return &mapCache{values: map[string][]byte{}} }

func (m *mapCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	data, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = data
	return nil
}

func (m *mapCache) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if prefix, ok := strings.CutSuffix(key, "*"); ok {
			for k := range m.values {
				if strings.HasPrefix(k, prefix) {
					delete(m.values, k)
				}
			}
			continue
		}
		delete(m.values, key)
	}
	return nil
}

func TestFetch_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	loads := 0
	load := func(context.Context) ([]int, error) {
		loads++
		return []int{1, 2, 3}, nil
	}

	first, err := Fetch(ctx, c, KeyTeams, time.Minute, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, KeyTeams, time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads, "second read should be served from cache")
}

func TestFetch_LoadErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	boom := errors.New("store down")

	_, err := Fetch(ctx, c, KeyGames, time.Minute, func(context.Context) ([]int, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.values)
}

func TestFetch_CacheFailureFallsBackToLoad(t *testing.T) {
	c := newMapCache()
	c.getErr = errors.New("connection refused")

	got, err := Fetch(context.Background(), c, KeyGames, time.Minute, func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestFetch_NilCache(t *testing.T) {
	got, err := Fetch(context.Background(), nil, KeyGames, time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	require.NoError(t, c.SetJSON(ctx, PlayersKey(nil), 1, 0))
	require.NoError(t, c.SetJSON(ctx, PlayersKey([]string{"QB"}), 1, 0))
	require.NoError(t, c.SetJSON(ctx, KeyTeams, 1, 0))

	require.NoError(t, c.Invalidate(ctx, KeyPlayersPrefix+"*"))

	assert.Len(t, c.values, 1)
	assert.Contains(t, c.values, KeyTeams)
}

func TestPlayersKey(t *testing.T) {
	assert.Equal(t, "gridiron:players:all", PlayersKey(nil))
	assert.Equal(t, "gridiron:players:QB,WR", PlayersKey([]string{"wr", " QB "}))
	assert.Equal(t, PlayersKey([]string{"QB", "WR"}), PlayersKey([]string{"WR", "QB"}))
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}

	require.NoError(t, c.SetJSON(ctx, KeyTeams, []int{1}, time.Minute))
	var out []int
	found, err := c.GetJSON(ctx, KeyTeams, &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Invalidate(ctx, KeyTeams))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(Config{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
}
