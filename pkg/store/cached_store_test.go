package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"smelty/pkg/cache"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is an in-process stand-in for the redis cache.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failSet bool
	closed  bool
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Key(parts ...string) string {
	return "test:" + strings.Join(parts, ":")
}

func (m *memCache) GetJSON(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("redis down")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) Close() error {
	m.closed = true
	return nil
}

func TestCachedStore_ReadThrough(t *testing.T) {
	backend := openTestStore(t)
	mc := newMemCache()
	s := NewCachedStore(backend, mc, time.Minute, nil)
	ctx := context.Background()

	persona := "conspiracy_nut"
	require.NoError(t, backend.UpsertPreferences(ctx, &PreferenceRecord{UserID: "u1", DefaultPersona: &persona}))

	rec, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "conspiracy_nut", *rec.DefaultPersona)
	assert.Contains(t, mc.data, "test:prefs:u1", "read should fill the cache")

	// Served from cache even after the backend row changes behind its back.
	other := "starry_teen"
	require.NoError(t, backend.UpsertPreferences(ctx, &PreferenceRecord{UserID: "u1", DefaultPersona: &other}))
	rec, err = s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "conspiracy_nut", *rec.DefaultPersona)
}

func TestCachedStore_WriteThrough(t *testing.T) {
	backend := openTestStore(t)
	mc := newMemCache()
	s := NewCachedStore(backend, mc, time.Minute, nil)
	ctx := context.Background()

	persona := "starry_teen"
	require.NoError(t, s.UpsertPreferences(ctx, &PreferenceRecord{
		UserID:         "u1",
		DefaultPersona: &persona,
		Settings:       map[string]string{SettingStreakDisplay: "off"},
	}))

	rec, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "off", rec.Settings[SettingStreakDisplay])

	durable, err := backend.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "starry_teen", *durable.DefaultPersona)
}

func TestCachedStore_CacheFailureIgnored(t *testing.T) {
	backend := openTestStore(t)
	mc := newMemCache()
	mc.failSet = true
	s := NewCachedStore(backend, mc, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, s.UpsertPreferences(ctx, &PreferenceRecord{UserID: "u1"}))
	rec, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Empty(t, mc.data)
}

func TestCachedStore_StreaksPassThrough(t *testing.T) {
	backend := openTestStore(t)
	mc := newMemCache()
	s := NewCachedStore(backend, mc, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, s.UpsertStreak(ctx, &StreakRecord{UserID: "u1", CurrentStreak: 3, HighestStreak: 3, LastUse: time.Now()}))
	rec, err := s.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.CurrentStreak)
	assert.Empty(t, mc.data)

	require.NoError(t, s.Close())
	assert.True(t, mc.closed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "x.db")}, nil)
	require.NoError(t, err)
	_, isSQLite := s.(*SQLiteStore)
	assert.True(t, isSQLite)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Driver: "mongo"}, nil)
	assert.Error(t, err)
}

func TestOpen_RedisUnavailable(t *testing.T) {
	s, err := Open(context.Background(), Options{
		Path:     filepath.Join(t.TempDir(), "x.db"),
		RedisURL: "redis://127.0.0.1:1/0",
	}, nil)
	require.NoError(t, err)
	defer s.Close()

	_, isSQLite := s.(*SQLiteStore)
	assert.True(t, isSQLite, "unreachable redis should fall back to the bare backend")
}
