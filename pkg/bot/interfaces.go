package bot

import (
	"context"
	"time"

	"smelty/pkg/prefs"
	"smelty/pkg/ratelimit"
	"smelty/pkg/streak"

	"github.com/bwmarrin/discordgo"
)

// Responder abstracts the interaction calls of discordgo.Session for testing.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Limiter is the admission check run before any other work.
type Limiter interface {
	Admit() ratelimit.Decision
	Stats() ratelimit.Stats
}

// Generator produces model text, primary first then fallback.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

type StreakService interface {
	Update(ctx context.Context, userID string, now time.Time) (streak.Update, error)
	Get(ctx context.Context, userID string) streak.State
}

type PreferenceService interface {
	Get(ctx context.Context, userID string) prefs.Preferences
	Save(ctx context.Context, userID string, u prefs.Update) (prefs.Preferences, error)
}
