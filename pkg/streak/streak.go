// Package streak tracks consecutive daily use and the rewards it unlocks.
package streak

import (
	"context"
	"time"

	"smelty/pkg/persona"
	"smelty/pkg/store"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultResetAfter is the longest gap that still continues a streak.
const DefaultResetAfter = 24 * time.Hour

// State is the read view of a user's streak.
type State struct {
	Current  int
	Highest  int
	Unlocked []string
}

// Update is the result of counting one invocation.
type Update struct {
	State
	// NewlyUnlocked holds rewards crossed by this update, threshold ascending.
	NewlyUnlocked []string
}

// Service owns the streak table. Updates for the same user are serialized.
type Service struct {
	store      store.StreakStore
	tiers      []persona.RewardTier
	resetAfter time.Duration
	logger     *zap.Logger
	locks      *keyedMutex
}

func NewService(s store.StreakStore, tiers []persona.RewardTier, resetAfter time.Duration, logger *zap.Logger) *Service {
	if resetAfter <= 0 {
		resetAfter = DefaultResetAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      s,
		tiers:      persona.SortTiers(tiers),
		resetAfter: resetAfter,
		logger:     logger,
		locks:      newKeyedMutex(),
	}
}

// Update counts one invocation at now. On a storage failure it returns the
// zero Update together with an error wrapping store.ErrPersistence.
func (s *Service) Update(ctx context.Context, userID string, now time.Time) (Update, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	prev, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load streak", zap.String("user_id", userID), zap.Error(err))
		return Update{}, persistence(err)
	}

	next := advance(prev, now, s.resetAfter, s.tiers)
	next.rec.UserID = userID

	if err := s.store.UpsertStreak(ctx, next.rec); err != nil {
		s.logger.Error("failed to save streak", zap.String("user_id", userID), zap.Error(err))
		return Update{}, persistence(err)
	}

	if len(next.NewlyUnlocked) > 0 {
		s.logger.Info("rewards unlocked",
			zap.String("user_id", userID),
			zap.Int("streak", next.Current),
			zap.Strings("rewards", next.NewlyUnlocked),
		)
	}
	return next.Update, nil
}

// Get reads the current state. Missing rows and storage failures both read
// as the zero state; failures are logged.
func (s *Service) Get(ctx context.Context, userID string) State {
	rec, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to read streak", zap.String("user_id", userID), zap.Error(err))
		return State{}
	}
	if rec == nil {
		return State{}
	}
	return State{
		Current:  rec.CurrentStreak,
		Highest:  rec.HighestStreak,
		Unlocked: append([]string(nil), rec.UnlockedRewards...),
	}
}

// Tiers returns the reward tiers, threshold ascending.
func (s *Service) Tiers() []persona.RewardTier {
	return append([]persona.RewardTier(nil), s.tiers...)
}

type advanced struct {
	Update
	rec *store.StreakRecord
}

// advance computes the next record from prev (nil when absent). tiers must be
// sorted by threshold.
func advance(prev *store.StreakRecord, now time.Time, resetAfter time.Duration, tiers []persona.RewardTier) advanced {
	var (
		current  = 1
		highest  int
		unlocked []string
	)
	if prev != nil {
		highest = prev.HighestStreak
		unlocked = append(unlocked, prev.UnlockedRewards...)
		// Exactly resetAfter counts as broken.
		if now.Sub(prev.LastUse) < resetAfter {
			current = prev.CurrentStreak + 1
		}
	}
	if current > highest {
		highest = current
	}

	var newly []string
	for _, t := range tiers {
		if t.Threshold > current {
			break
		}
		if !contains(unlocked, t.RewardID) {
			unlocked = append(unlocked, t.RewardID)
			newly = append(newly, t.RewardID)
		}
	}

	return advanced{
		Update: Update{
			State:         State{Current: current, Highest: highest, Unlocked: unlocked},
			NewlyUnlocked: newly,
		},
		rec: &store.StreakRecord{
			CurrentStreak:   current,
			HighestStreak:   highest,
			LastUse:         now,
			UnlockedRewards: unlocked,
		},
	}
}

func persistence(err error) error {
	if errors.Is(err, store.ErrPersistence) {
		return err
	}
	return errors.Wrapf(store.ErrPersistence, "%v", err)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
