// Package bot wires the slash commands to the streak, preference and
// generation services.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// permUseApplicationCommands is Discord's USE_APPLICATION_COMMANDS bit.
const permUseApplicationCommands int64 = 1 << 31

// InvitePermissions are the only permissions the bot asks for.
const InvitePermissions = discordgo.PermissionSendMessages | permUseApplicationCommands

type Handler struct {
	svc    *Service
	logger *zap.Logger

	mu      sync.RWMutex
	appID   string
	closing bool
	wg      sync.WaitGroup
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// SetAppID records the application id used for invite links.
func (h *Handler) SetAppID(id string) {
	h.mu.Lock()
	h.appID = id
	h.mu.Unlock()
}

func (h *Handler) getAppID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.appID
}

// Shutdown stops accepting interactions and blocks until in-flight
// commands finish.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()
	h.wg.Wait()
}

// track registers an in-flight command. It reports false once Shutdown has
// started.
func (h *Handler) track() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closing {
		return false
	}
	h.wg.Add(1)
	return true
}

// InviteURL builds the OAuth2 link that adds the bot with its commands.
func InviteURL(appID string) string {
	return fmt.Sprintf(
		"https://discord.com/api/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands",
		appID, InvitePermissions,
	)
}

// InteractionCreate handles all slash command interactions.
func (h *Handler) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.handleInteraction(s, i)
}

func (h *Handler) handleInteraction(s Responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	commandName := i.ApplicationCommandData().Name
	handler, ok := SlashCommandHandlers[commandName]
	if !ok {
		h.logger.Warn("unknown slash command", zap.String("command", commandName))
		return
	}

	log := h.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("command", commandName),
	)
	ctx := withLogger(context.Background(), log)

	if !h.track() {
		log.Info("dropping interaction during shutdown")
		return
	}
	defer h.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error("command panicked", zap.Any("panic", r))
			respond(s, i, msgSomethingWrong, log)
		}
	}()

	handler(ctx, h, s, i)
}
