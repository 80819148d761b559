package store

import (
	"context"
	"time"

	"smelty/pkg/surreal"

	"github.com/pkg/errors"
)

const (
	streakTable     = "user_streaks"
	preferenceTable = "user_preferences"
)

// recordClient is the subset of surreal.Client the store needs.
type recordClient interface {
	Query(ctx context.Context, sql string, vars map[string]interface{}) (interface{}, error)
	SelectRecord(ctx context.Context, table, id string) (map[string]interface{}, error)
	Upsert(ctx context.Context, table, id string, fields map[string]interface{}) error
	Close() error
}

var _ recordClient = (*surreal.Client)(nil)

// SurrealStore keeps records as user_streaks:<id> and user_preferences:<id>.
type SurrealStore struct {
	client recordClient
}

func NewSurrealStore(ctx context.Context, client recordClient) (*SurrealStore, error) {
	s := &SurrealStore{client: client}
	if err := s.Init(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to initialize surrealdb schema")
	}
	return s, nil
}

func (s *SurrealStore) Init(ctx context.Context) error {
	query := `
		DEFINE TABLE IF NOT EXISTS user_streaks SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS current_streak ON user_streaks TYPE int;
		DEFINE FIELD IF NOT EXISTS highest_streak ON user_streaks TYPE int;
		DEFINE FIELD IF NOT EXISTS last_use ON user_streaks TYPE int;
		DEFINE FIELD IF NOT EXISTS unlocked_rewards ON user_streaks TYPE array<string>;

		DEFINE TABLE IF NOT EXISTS user_preferences SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS default_persona ON user_preferences TYPE option<string>;
		DEFINE FIELD IF NOT EXISTS settings ON user_preferences FLEXIBLE TYPE object;
		DEFINE FIELD IF NOT EXISTS updated_at ON user_preferences TYPE int;
	`
	_, err := s.client.Query(ctx, query, nil)
	return err
}

func (s *SurrealStore) Close() error {
	return s.client.Close()
}

func (s *SurrealStore) GetStreak(ctx context.Context, userID string) (*StreakRecord, error) {
	row, err := s.client.SelectRecord(ctx, streakTable, userID)
	if err != nil {
		return nil, persistenceErr(err, "get streak")
	}
	if row == nil {
		return nil, nil
	}

	rec := &StreakRecord{
		UserID:          userID,
		CurrentStreak:   int(toInt64(row["current_streak"])),
		HighestStreak:   int(toInt64(row["highest_streak"])),
		LastUse:         time.Unix(0, toInt64(row["last_use"])).UTC(),
		UnlockedRewards: toStrings(row["unlocked_rewards"]),
	}
	return rec, nil
}

func (s *SurrealStore) UpsertStreak(ctx context.Context, rec *StreakRecord) error {
	rewards := rec.UnlockedRewards
	if rewards == nil {
		rewards = []string{}
	}
	err := s.client.Upsert(ctx, streakTable, rec.UserID, map[string]interface{}{
		"current_streak":   rec.CurrentStreak,
		"highest_streak":   rec.HighestStreak,
		"last_use":         rec.LastUse.UnixNano(),
		"unlocked_rewards": rewards,
	})
	return persistenceErr(err, "upsert streak")
}

func (s *SurrealStore) GetPreferences(ctx context.Context, userID string) (*PreferenceRecord, error) {
	row, err := s.client.SelectRecord(ctx, preferenceTable, userID)
	if err != nil {
		return nil, persistenceErr(err, "get preferences")
	}
	if row == nil {
		return nil, nil
	}

	rec := &PreferenceRecord{UserID: userID, Settings: map[string]string{}}
	if p, ok := row["default_persona"].(string); ok {
		rec.DefaultPersona = &p
	}
	if settings, ok := row["settings"].(map[string]interface{}); ok {
		for k, v := range settings {
			if str, ok := v.(string); ok {
				rec.Settings[k] = str
			}
		}
	}
	return rec, nil
}

func (s *SurrealStore) UpsertPreferences(ctx context.Context, rec *PreferenceRecord) error {
	settings := rec.Settings
	if settings == nil {
		settings = map[string]string{}
	}
	fields := map[string]interface{}{
		"settings":   settings,
		"updated_at": time.Now().Unix(),
	}
	// option<string> is cleared with NONE; a nil value would encode as NULL.
	if rec.DefaultPersona != nil {
		fields["default_persona"] = *rec.DefaultPersona
	} else if _, err := s.client.Query(ctx,
		`UPDATE type::thing("user_preferences", $id) SET default_persona = NONE;`,
		map[string]interface{}{"id": rec.UserID}); err != nil {
		return persistenceErr(err, "clear default persona")
	}

	err := s.client.Upsert(ctx, preferenceTable, rec.UserID, fields)
	return persistenceErr(err, "upsert preferences")
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func toStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
