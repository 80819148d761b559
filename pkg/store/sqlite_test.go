package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "smelty.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_StreakRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec, "absent user should yield no record")

	now := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)
	require.NoError(t, s.UpsertStreak(ctx, &StreakRecord{
		UserID:        "u1",
		CurrentStreak: 5,
		HighestStreak: 7,
		LastUse:       now,
		UnlockedRewards: []string{
			"meme_lord",
		},
	}))

	rec, err = s.GetStreak(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 5, rec.CurrentStreak)
	assert.Equal(t, 7, rec.HighestStreak)
	assert.True(t, now.Equal(rec.LastUse))
	assert.Equal(t, []string{"meme_lord"}, rec.UnlockedRewards)

	// Upsert replaces the row.
	require.NoError(t, s.UpsertStreak(ctx, &StreakRecord{UserID: "u1", CurrentStreak: 1, HighestStreak: 7, LastUse: now}))
	rec, err = s.GetStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Empty(t, rec.UnlockedRewards)
}

func TestSQLiteStore_PreferencesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	persona := "starry_teen"
	require.NoError(t, s.UpsertPreferences(ctx, &PreferenceRecord{
		UserID:         "u1",
		DefaultPersona: &persona,
		Settings:       map[string]string{SettingResponseStyle: "minimal"},
	}))

	rec, err = s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotNil(t, rec.DefaultPersona)
	assert.Equal(t, "starry_teen", *rec.DefaultPersona)
	assert.Equal(t, "minimal", rec.Settings[SettingResponseStyle])

	require.NoError(t, s.UpsertPreferences(ctx, &PreferenceRecord{UserID: "u1"}))
	rec, err = s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec.DefaultPersona)
	assert.Empty(t, rec.Settings)
}

func TestSQLiteStore_ClosedDatabase(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.GetStreak(context.Background(), "u1")
	assert.True(t, errors.Is(err, ErrPersistence))

	err = s.UpsertPreferences(context.Background(), &PreferenceRecord{UserID: "u1"})
	assert.True(t, errors.Is(err, ErrPersistence))
}
