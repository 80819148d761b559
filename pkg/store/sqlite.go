package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps both tables in a single database file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite creates or opens the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create directory")
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// One writer at a time; SQLite would otherwise answer SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_streaks (
		user_id TEXT PRIMARY KEY,
		current_streak INTEGER NOT NULL DEFAULT 0,
		highest_streak INTEGER NOT NULL DEFAULT 0,
		last_use INTEGER NOT NULL,
		unlocked_rewards TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		default_persona TEXT,
		settings TEXT NOT NULL DEFAULT '{}',
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetStreak(ctx context.Context, userID string) (*StreakRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT current_streak, highest_streak, last_use, unlocked_rewards
		FROM user_streaks WHERE user_id = ?`, userID)

	var (
		rec        = StreakRecord{UserID: userID}
		lastUse    int64
		rewardsRaw string
	)
	err := row.Scan(&rec.CurrentStreak, &rec.HighestStreak, &lastUse, &rewardsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr(err, "get streak")
	}

	rec.LastUse = time.Unix(0, lastUse).UTC()
	if err := json.Unmarshal([]byte(rewardsRaw), &rec.UnlockedRewards); err != nil {
		return nil, persistenceErr(err, "decode unlocked rewards")
	}
	return &rec, nil
}

func (s *SQLiteStore) UpsertStreak(ctx context.Context, rec *StreakRecord) error {
	rewards := rec.UnlockedRewards
	if rewards == nil {
		rewards = []string{}
	}
	rewardsJSON, err := json.Marshal(rewards)
	if err != nil {
		return persistenceErr(err, "encode unlocked rewards")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_streaks (user_id, current_streak, highest_streak, last_use, unlocked_rewards)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			highest_streak = excluded.highest_streak,
			last_use = excluded.last_use,
			unlocked_rewards = excluded.unlocked_rewards`,
		rec.UserID, rec.CurrentStreak, rec.HighestStreak, rec.LastUse.UnixNano(), string(rewardsJSON))
	return persistenceErr(err, "upsert streak")
}

func (s *SQLiteStore) GetPreferences(ctx context.Context, userID string) (*PreferenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT default_persona, settings FROM user_preferences WHERE user_id = ?`, userID)

	var (
		persona     sql.NullString
		settingsRaw string
	)
	err := row.Scan(&persona, &settingsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr(err, "get preferences")
	}

	rec := &PreferenceRecord{UserID: userID, Settings: map[string]string{}}
	if persona.Valid {
		p := persona.String
		rec.DefaultPersona = &p
	}
	if err := json.Unmarshal([]byte(settingsRaw), &rec.Settings); err != nil {
		return nil, persistenceErr(err, "decode settings")
	}
	return rec, nil
}

func (s *SQLiteStore) UpsertPreferences(ctx context.Context, rec *PreferenceRecord) error {
	settings := rec.Settings
	if settings == nil {
		settings = map[string]string{}
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return persistenceErr(err, "encode settings")
	}

	var persona sql.NullString
	if rec.DefaultPersona != nil {
		persona = sql.NullString{String: *rec.DefaultPersona, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, default_persona, settings, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			default_persona = excluded.default_persona,
			settings = excluded.settings,
			updated_at = excluded.updated_at`,
		rec.UserID, persona, string(settingsJSON), time.Now().Unix())
	return persistenceErr(err, "upsert preferences")
}
