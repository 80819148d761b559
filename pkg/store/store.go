// Package store persists per-user streak and preference records.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrPersistence wraps every storage read or write failure.
var ErrPersistence = errors.New("persistence error")

// Setting keys stored in PreferenceRecord.Settings.
const (
	SettingResponseStyle = "response_style"
	SettingMentionStyle  = "mention_style"
	SettingStreakDisplay = "streak_display"
)

// StreakRecord is one row of the streak table.
type StreakRecord struct {
	UserID          string    `json:"user_id"`
	CurrentStreak   int       `json:"current_streak"`
	HighestStreak   int       `json:"highest_streak"`
	LastUse         time.Time `json:"last_use"`
	UnlockedRewards []string  `json:"unlocked_rewards"`
}

// PreferenceRecord is one row of the preferences table. Settings hold raw
// strings; validation happens before a record reaches the store.
type PreferenceRecord struct {
	UserID         string            `json:"user_id"`
	DefaultPersona *string           `json:"default_persona,omitempty"`
	Settings       map[string]string `json:"settings"`
}

// StreakStore owns the streak table. GetStreak returns (nil, nil) when absent.
type StreakStore interface {
	GetStreak(ctx context.Context, userID string) (*StreakRecord, error)
	UpsertStreak(ctx context.Context, rec *StreakRecord) error
}

// PreferenceStore owns the preferences table. GetPreferences returns (nil, nil) when absent.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (*PreferenceRecord, error)
	UpsertPreferences(ctx context.Context, rec *PreferenceRecord) error
}

// Store is a backend holding both tables.
type Store interface {
	StreakStore
	PreferenceStore
	Close() error
}

func persistenceErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrPersistence, "%s: %v", op, err)
}
