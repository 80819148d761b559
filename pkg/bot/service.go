package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smelty/pkg/format"
	"smelty/pkg/llm"
	"smelty/pkg/persona"
	"smelty/pkg/prefs"
	"smelty/pkg/ratelimit"
	"smelty/pkg/streak"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FallbackMode is used when neither the command nor the user picks a mode.
const FallbackMode = "cynical_vc"

// AskRequest is one /smelty invocation.
type AskRequest struct {
	UserID   string
	User     format.User
	Mode     string
	Question string
}

// Service is the command logic behind the Discord handlers.
type Service struct {
	personas    *persona.Registry
	limiter     Limiter
	generator   Generator
	streaks     StreakService
	prefs       PreferenceService
	defaultMode string
	logger      *zap.Logger
	now         func() time.Time
}

type ServiceConfig struct {
	Personas    *persona.Registry
	Limiter     Limiter
	Generator   Generator
	Streaks     StreakService
	Prefs       PreferenceService
	DefaultMode string
	Logger      *zap.Logger
	Now         func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		personas:    cfg.Personas,
		limiter:     cfg.Limiter,
		generator:   cfg.Generator,
		streaks:     cfg.Streaks,
		prefs:       cfg.Prefs,
		defaultMode: cfg.DefaultMode,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if s.personas == nil {
		s.personas = persona.Default()
	}
	if s.defaultMode == "" {
		s.defaultMode = FallbackMode
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Ask answers a question and returns the reply to post.
func (s *Service) Ask(ctx context.Context, req AskRequest) string {
	log := loggerFrom(ctx, s.logger).With(zap.String("user_id", req.UserID))

	p := s.prefs.Get(ctx, req.UserID)
	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = p.DefaultMode
	}
	if mode == "" {
		mode = s.defaultMode
	}
	log = log.With(zap.String("mode", mode))

	if persona.IsRickroll(req.Question) {
		log.Info("rickroll served")
		return persona.Rickroll(mode)
	}

	if d := s.limiter.Admit(); !d.Allowed {
		log.Warn("rate limited before dispatch", zap.Duration("retry_after", d.RetryAfter))
		return cooldownMessage(retrySeconds(d.RetryAfter))
	}

	upd, err := s.streaks.Update(ctx, req.UserID, s.now())
	if err != nil {
		log.Error("streak update failed, continuing with zero streak", zap.Error(err))
		upd = streak.Update{}
	} else {
		log.Info("streak updated", zap.Int("streak", upd.Current), zap.Int("highest", upd.Highest))
	}

	per, err := s.personas.Resolve(mode, upd.Unlocked)
	if err != nil {
		log.Warn("mode rejected", zap.Error(err))
		return s.modeErrorMessage(mode, upd.Unlocked, err)
	}

	text, err := s.generator.Generate(ctx, per.Prompt, req.Question)
	if err != nil {
		var rl *llm.RateLimitError
		if errors.As(err, &rl) {
			log.Warn("rate limited at dispatch", zap.Duration("retry_after", rl.RetryAfter))
			return cooldownMessage(rl.RetrySeconds())
		}
		log.Error("generation failed", zap.Error(err))
		return msgProvidersDown
	}

	return format.Format(format.Input{
		Text:          text,
		Mode:          mode,
		Display:       p.Display,
		User:          req.User,
		Streak:        upd.State,
		NewlyUnlocked: upd.NewlyUnlocked,
		Tiers:         s.personas.Tiers(),
		Messages:      s.personas,
	})
}

// SetPreferences applies u and returns the confirmation or the reason it
// was refused. An empty update shows the current preferences.
func (s *Service) SetPreferences(ctx context.Context, userID string, u prefs.Update) string {
	log := loggerFrom(ctx, s.logger).With(zap.String("user_id", userID))

	if u.Empty() {
		return preferencesMessage(s.prefs.Get(ctx, userID))
	}

	if u.Mode != nil && *u.Mode != "" {
		unlocked := s.streaks.Get(ctx, userID).Unlocked
		if err := s.personas.Check(*u.Mode, unlocked); err != nil {
			log.Warn("default mode rejected", zap.String("mode", *u.Mode), zap.Error(err))
			return s.modeErrorMessage(*u.Mode, unlocked, err)
		}
	}
	if u.ResponseStyle != nil {
		if _, err := prefs.ParseResponseStyle(*u.ResponseStyle); err != nil {
			return invalidChoiceMessage("response style", prefs.ResponseStyles)
		}
	}
	if u.MentionStyle != nil {
		if _, err := prefs.ParseMentionStyle(*u.MentionStyle); err != nil {
			return invalidChoiceMessage("mention style", prefs.MentionStyles)
		}
	}
	if u.StreakDisplay != nil {
		if _, err := prefs.ParseStreakDisplay(*u.StreakDisplay); err != nil {
			return invalidChoiceMessage("streak display setting", prefs.StreakDisplays)
		}
	}

	saved, err := s.prefs.Save(ctx, userID, u)
	if err != nil {
		log.Error("preferences not saved", zap.Error(err))
		return msgPrefsSaveFailed
	}
	log.Info("preferences saved", zap.String("default_mode", saved.DefaultMode))
	return preferencesUpdatedMessage(u)
}

// HelpText lists the modes open to the user and the reward ladder.
func (s *Service) HelpText(ctx context.Context, userID string) string {
	st := s.streaks.Get(ctx, userID)
	stats := s.limiter.Stats()

	var b strings.Builder
	b.WriteString("🤖 **AI Personality Bot - Your Companion with Multiple Personalities!**\n\n")
	fmt.Fprintf(&b, "🎭 **Available Modes:**\n• %s\n\n", codeList(s.personas.BaseIDs()))
	if unlocked := s.personas.UnlockedRewards(st.Unlocked); len(unlocked) > 0 {
		fmt.Fprintf(&b, "🌟 **Unlocked Special Modes:**\n• %s\n\n", codeList(unlocked))
	}
	b.WriteString("🎮 **How to Use:**\n")
	b.WriteString("/smelty mode:[choose_mode] question:[your_question]\n")
	b.WriteString("/prefs - Set your default personality mode\n\n")
	b.WriteString("📝 **Example:**\n")
	b.WriteString("/smelty mode:cynical_vc question:What's your take on AI startups?\n\n")
	b.WriteString("🌟 **Streak Rewards:**\n")
	for _, t := range s.personas.Tiers() {
		fmt.Fprintf(&b, "• %d uses: Unlock `%s` mode\n", t.Threshold, t.RewardID)
	}
	if st.Current > 0 {
		fmt.Fprintf(&b, "\n🎯 Your streak: %d (best %d)\n", st.Current, st.Highest)
	}
	b.WriteString("\n⚡ **Rate Limits:**\n")
	fmt.Fprintf(&b, "• %d requests per %s to keep things running smoothly\n\n", stats.Limit, windowText(stats.Window))
	b.WriteString("Need more help? Just ask away! 🚀")
	return b.String()
}

func (s *Service) modeErrorMessage(mode string, unlocked []string, err error) string {
	if errors.Is(err, persona.ErrLockedMode) {
		return lockedModeMessage(mode, thresholdFor(s.personas.Tiers(), mode))
	}
	return invalidModeMessage(s.personas.Available(unlocked))
}

func thresholdFor(tiers []persona.RewardTier, id string) int {
	for _, t := range tiers {
		if t.RewardID == id {
			return t.Threshold
		}
	}
	return 0
}

func retrySeconds(d time.Duration) int {
	return (&llm.RateLimitError{RetryAfter: d}).RetrySeconds()
}

func windowText(d time.Duration) string {
	if d == time.Minute {
		return "minute"
	}
	return d.String()
}

var _ Limiter = (*ratelimit.Limiter)(nil)
var _ Generator = (*llm.Dispatcher)(nil)
var _ StreakService = (*streak.Service)(nil)
var _ PreferenceService = (*prefs.Service)(nil)
