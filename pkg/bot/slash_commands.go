package bot

import (
	"context"

	"smelty/pkg/format"
	"smelty/pkg/prefs"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func stringChoices[T ~string](values []T) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, len(values))
	for i, v := range values {
		out[i] = &discordgo.ApplicationCommandOptionChoice{Name: string(v), Value: string(v)}
	}
	return out
}

// SlashCommands defines all available slash commands
var SlashCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "help",
		Description: "Show available modes and features of the bot",
	},
	{
		Name:        "prefs",
		Description: "Set your preferences for the bot!",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "default_mode",
				Description: "Your preferred personality mode",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "response_style",
				Description: "How responses should be formatted (normal/fancy/minimal)",
				Choices:     stringChoices(prefs.ResponseStyles),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mention_style",
				Description: "How you want to be mentioned (username/nickname/none)",
				Choices:     stringChoices(prefs.MentionStyles),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "streak_display",
				Description: "Show streak info after responses (on/off)",
				Choices:     stringChoices(prefs.StreakDisplays),
			},
		},
	},
	{
		Name:        "smelty",
		Description: "Ask AI in a specific personality mode!",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "question",
				Description: "Your question or prompt for the AI",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "The personality mode (use /help to see available modes)",
			},
		},
	},
	{
		Name:        "invite",
		Description: "Get the bot's invite link!",
	},
}

type commandHandler func(ctx context.Context, h *Handler, s Responder, i *discordgo.InteractionCreate)

// SlashCommandHandlers maps command names to their handler functions
var SlashCommandHandlers = map[string]commandHandler{
	"help":   handleHelpCommand,
	"prefs":  handlePrefsCommand,
	"smelty": handleSmeltyCommand,
	"invite": handleInviteCommand,
}

func handleHelpCommand(ctx context.Context, h *Handler, s Responder, i *discordgo.InteractionCreate) {
	log := loggerFrom(ctx, h.logger)
	u, err := getUserFromInteraction(i)
	if err != nil {
		log.Warn("help without user", zap.Error(err))
		respond(s, i, msgNoUser, log)
		return
	}
	respond(s, i, h.svc.HelpText(ctx, u.ID), log)
	log.Info("help served", zap.String("user_id", u.ID))
}

func handlePrefsCommand(ctx context.Context, h *Handler, s Responder, i *discordgo.InteractionCreate) {
	log := loggerFrom(ctx, h.logger)
	u, err := getUserFromInteraction(i)
	if err != nil {
		log.Warn("prefs without user", zap.Error(err))
		respond(s, i, msgNoUser, log)
		return
	}

	opts := optionMap(i)
	update := prefs.Update{
		Mode:          opts.get("default_mode"),
		ResponseStyle: opts.get("response_style"),
		MentionStyle:  opts.get("mention_style"),
		StreakDisplay: opts.get("streak_display"),
	}
	respond(s, i, h.svc.SetPreferences(ctx, u.ID, update), log)
}

// handleSmeltyCommand defers the response since generation can take up to
// two provider timeouts, then posts the reply as follow-ups.
func handleSmeltyCommand(ctx context.Context, h *Handler, s Responder, i *discordgo.InteractionCreate) {
	log := loggerFrom(ctx, h.logger)
	u, err := getUserFromInteraction(i)
	if err != nil {
		log.Warn("smelty without user", zap.Error(err))
		respond(s, i, msgNoUser, log)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Error("failed to defer response", zap.Error(err))
		return
	}

	opts := optionMap(i)
	req := AskRequest{
		UserID:   u.ID,
		User:     format.User{Username: u.Username, DisplayName: u.DisplayName},
		Question: opts.value("question"),
		Mode:     opts.value("mode"),
	}
	log.Info("command received", zap.String("user_id", u.ID), zap.String("mode", req.Mode))

	reply := h.svc.Ask(ctx, req)
	for _, chunk := range format.Split(reply, format.MaxMessageLength) {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: chunk}); err != nil {
			log.Error("failed to send follow-up", zap.Error(err))
			return
		}
	}
	log.Info("response sent", zap.String("user_id", u.ID))
}

func handleInviteCommand(ctx context.Context, h *Handler, s Responder, i *discordgo.InteractionCreate) {
	log := loggerFrom(ctx, h.logger)
	appID := h.getAppID()
	if appID == "" {
		appID = i.AppID
	}
	respond(s, i, inviteMessage(InviteURL(appID)), log)
}

// respond sends content as the immediate interaction response.
func respond(s Responder, i *discordgo.InteractionCreate, content string, log *zap.Logger) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Error("failed to respond", zap.Error(err))
	}
}

// RegisterSlashCommands registers all slash commands with Discord
func RegisterSlashCommands(s *discordgo.Session, guildID string, logger *zap.Logger) ([]*discordgo.ApplicationCommand, error) {
	logger.Info("registering slash commands", zap.String("guild_id", guildID))

	registeredCommands := make([]*discordgo.ApplicationCommand, len(SlashCommands))

	for i, cmd := range SlashCommands {
		// guildID "" registers globally.
		registeredCmd, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd)
		if err != nil {
			logger.Error("cannot create command", zap.String("command", cmd.Name), zap.Error(err))
			return nil, err
		}
		registeredCommands[i] = registeredCmd
		logger.Debug("registered command", zap.String("command", cmd.Name))
	}

	return registeredCommands, nil
}

// UnregisterSlashCommands removes all registered slash commands
func UnregisterSlashCommands(s *discordgo.Session, guildID string, commands []*discordgo.ApplicationCommand, logger *zap.Logger) error {
	logger.Info("unregistering slash commands")

	for _, cmd := range commands {
		err := s.ApplicationCommandDelete(s.State.User.ID, guildID, cmd.ID)
		if err != nil {
			logger.Error("cannot delete command", zap.String("command", cmd.Name), zap.Error(err))
			return err
		}
	}

	return nil
}
