package persona

import (
	"sort"

	"github.com/pkg/errors"
)

// Tier separates personas everyone gets from the ones earned through streaks.
type Tier string

const (
	TierBase   Tier = "base"
	TierReward Tier = "reward"
)

var (
	// ErrInvalidMode is returned for ids the registry does not know.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrLockedMode is returned for reward personas the user has not unlocked yet.
	// It does not wrap ErrInvalidMode.
	ErrLockedMode = errors.New("mode not yet unlocked")
)

// Persona is a named system instruction that shapes the reply style.
type Persona struct {
	ID            string
	Prompt        string
	Example       string
	Tier          Tier
	UnlockMessage string // reward personas only
}

// RewardTier maps a streak threshold to the reward persona it unlocks.
type RewardTier struct {
	Threshold int
	RewardID  string
}

// DefaultRewardTiers is ordered by threshold ascending.
var DefaultRewardTiers = []RewardTier{
	{Threshold: 5, RewardID: "meme_lord"},
	{Threshold: 10, RewardID: "dank_memer"},
	{Threshold: 25, RewardID: "chaos_agent"},
	{Threshold: 50, RewardID: "elite_status"},
	{Threshold: 100, RewardID: "legendary"},
}

const genericUnlockMessage = "🎉 New reward unlocked!"

// Registry is the read-only persona lookup table shared by all commands.
type Registry struct {
	base      map[string]Persona
	rewards   map[string]Persona
	baseOrder []string
	tiers     []RewardTier
}

// NewRegistry builds a registry. Reward personas are listed in the order of
// their tier threshold; rewards without a tier are appended by id.
func NewRegistry(base, rewards []Persona, tiers []RewardTier) *Registry {
	r := &Registry{
		base:    make(map[string]Persona, len(base)),
		rewards: make(map[string]Persona, len(rewards)),
		tiers:   SortTiers(tiers),
	}
	for _, p := range base {
		p.Tier = TierBase
		r.base[p.ID] = p
		r.baseOrder = append(r.baseOrder, p.ID)
	}
	for _, p := range rewards {
		p.Tier = TierReward
		r.rewards[p.ID] = p
	}
	return r
}

// Default returns the built-in persona table.
func Default() *Registry {
	return NewRegistry(basePersonas, rewardPersonas, DefaultRewardTiers)
}

// Tiers returns the reward tiers sorted by threshold.
func (r *Registry) Tiers() []RewardTier {
	out := make([]RewardTier, len(r.tiers))
	copy(out, r.tiers)
	return out
}

// Resolve returns the persona for modeID if the user may use it.
// A reward persona is only returned when modeID is in unlocked; it is never
// silently downgraded to a base persona.
func (r *Registry) Resolve(modeID string, unlocked []string) (Persona, error) {
	if err := r.Check(modeID, unlocked); err != nil {
		return Persona{}, err
	}
	if p, ok := r.rewards[modeID]; ok {
		return p, nil
	}
	return r.base[modeID], nil
}

// Check classifies modeID without returning the persona. It is the access check
// the command layer runs before dispatching anything.
func (r *Registry) Check(modeID string, unlocked []string) error {
	if _, ok := r.rewards[modeID]; ok {
		if !contains(unlocked, modeID) {
			return errors.Wrapf(ErrLockedMode, "%s", modeID)
		}
		return nil
	}
	if _, ok := r.base[modeID]; ok {
		return nil
	}
	return errors.Wrapf(ErrInvalidMode, "%s", modeID)
}

// Known reports whether id names any persona.
func (r *Registry) Known(id string) bool {
	_, base := r.base[id]
	_, reward := r.rewards[id]
	return base || reward
}

// IsReward reports whether id names a reward persona.
func (r *Registry) IsReward(id string) bool {
	_, ok := r.rewards[id]
	return ok
}

// BaseIDs lists the base personas in table order.
func (r *Registry) BaseIDs() []string {
	out := make([]string, len(r.baseOrder))
	copy(out, r.baseOrder)
	return out
}

// Available lists base personas followed by the unlocked reward personas in
// threshold order.
func (r *Registry) Available(unlocked []string) []string {
	out := r.BaseIDs()
	return append(out, r.UnlockedRewards(unlocked)...)
}

// UnlockedRewards filters unlocked down to known reward ids, in threshold order.
func (r *Registry) UnlockedRewards(unlocked []string) []string {
	var out []string
	for _, id := range r.rewardOrder() {
		if contains(unlocked, id) {
			out = append(out, id)
		}
	}
	return out
}

// UnlockMessage returns the announcement for a reward id.
func (r *Registry) UnlockMessage(id string) string {
	if p, ok := r.rewards[id]; ok && p.UnlockMessage != "" {
		return p.UnlockMessage
	}
	return genericUnlockMessage
}

func (r *Registry) rewardOrder() []string {
	seen := make(map[string]bool, len(r.rewards))
	var order []string
	for _, t := range r.tiers {
		if _, ok := r.rewards[t.RewardID]; ok && !seen[t.RewardID] {
			seen[t.RewardID] = true
			order = append(order, t.RewardID)
		}
	}
	var rest []string
	for id := range r.rewards {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// SortTiers returns a copy of tiers ordered by threshold ascending.
func SortTiers(tiers []RewardTier) []RewardTier {
	out := make([]RewardTier, len(tiers))
	copy(out, tiers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// NextThreshold returns the smallest threshold strictly above streak.
func NextThreshold(tiers []RewardTier, streak int) (int, bool) {
	for _, t := range SortTiers(tiers) {
		if t.Threshold > streak {
			return t.Threshold, true
		}
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
