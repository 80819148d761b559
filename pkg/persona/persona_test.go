package persona

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	reg := Default()

	tests := []struct {
		name     string
		mode     string
		unlocked []string
		wantErr  error
	}{
		{"Base persona", "cynical_vc", nil, nil},
		{"Locked reward", "dank_memer", []string{}, ErrLockedMode},
		{"Unlocked reward", "dank_memer", []string{"dank_memer"}, nil},
		{"Other reward unlocked", "legendary", []string{"meme_lord", "dank_memer"}, ErrLockedMode},
		{"Unknown mode", "nonexistent", []string{}, ErrInvalidMode},
		{"Unlock list does not create personas", "nonexistent", []string{"nonexistent"}, ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Resolve(tt.mode, tt.unlocked)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Empty(t, p.ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, p.ID)
			assert.NotEmpty(t, p.Prompt)
		})
	}
}

func TestLockedIsDistinctFromInvalid(t *testing.T) {
	reg := Default()

	_, err := reg.Resolve("dank_memer", nil)
	assert.False(t, errors.Is(err, ErrInvalidMode))

	_, err = reg.Resolve("nonexistent", nil)
	assert.False(t, errors.Is(err, ErrLockedMode))
}

func TestResolveReturnsRewardPersona(t *testing.T) {
	reg := Default()

	p, err := reg.Resolve("meme_lord", []string{"meme_lord"})
	require.NoError(t, err)

	want := Persona{
		ID:            "meme_lord",
		Prompt:        rewardPersonas[0].Prompt,
		Example:       rewardPersonas[0].Example,
		Tier:          TierReward,
		UnlockMessage: rewardPersonas[0].UnlockMessage,
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestAvailable(t *testing.T) {
	reg := Default()

	assert.Equal(t, []string{"cynical_vc", "starry_teen", "conspiracy_nut"}, reg.Available(nil))

	// Unlock order in the record does not matter, output follows thresholds.
	got := reg.Available([]string{"legendary", "meme_lord", "bogus"})
	assert.Equal(t, []string{"cynical_vc", "starry_teen", "conspiracy_nut", "meme_lord", "legendary"}, got)
}

func TestUnlockMessage(t *testing.T) {
	reg := Default()
	assert.Contains(t, reg.UnlockMessage("meme_lord"), "Meme Lord")
	assert.Equal(t, genericUnlockMessage, reg.UnlockMessage("unknown"))
}

func TestNextThreshold(t *testing.T) {
	tests := []struct {
		streak int
		want   int
		ok     bool
	}{
		{0, 5, true},
		{5, 10, true},
		{6, 10, true},
		{49, 50, true},
		{99, 100, true},
		{100, 0, false},
		{250, 0, false},
	}
	for _, tt := range tests {
		got, ok := NextThreshold(DefaultRewardTiers, tt.streak)
		assert.Equal(t, tt.ok, ok, "streak %d", tt.streak)
		assert.Equal(t, tt.want, got, "streak %d", tt.streak)
	}
}

func TestSortTiers(t *testing.T) {
	in := []RewardTier{{Threshold: 10, RewardID: "b"}, {Threshold: 5, RewardID: "a"}}
	out := SortTiers(in)
	assert.Equal(t, "a", out[0].RewardID)
	assert.Equal(t, "b", in[0].RewardID, "input must not be reordered")
}

func TestRickroll(t *testing.T) {
	assert.True(t, IsRickroll("  RickRoll "))
	assert.False(t, IsRickroll("rickroll me"))

	assert.Contains(t, Rickroll("cynical_vc"), "Series A")
	assert.Equal(t, Rickroll("dank_memer"), Rickroll("no_such_mode"))
}
