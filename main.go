package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"smelty/pkg/bot"
	"smelty/pkg/config"
	"smelty/pkg/deepseek"
	"smelty/pkg/gemini"
	"smelty/pkg/huggingface"
	"smelty/pkg/llm"
	"smelty/pkg/persona"
	"smelty/pkg/prefs"
	"smelty/pkg/ratelimit"
	"smelty/pkg/status"
	"smelty/pkg/store"
	"smelty/pkg/streak"
	"smelty/pkg/surreal"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	envPath    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "smelty",
		Short:         "Discord bot that answers questions in character",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return run(cmd.Context(), cfg, logger, os.Getenv)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.envPath, "env", ".env", "path to the .env file with secrets")

	root.AddCommand(newInspectCmd(opts))
	return root
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <user-id>",
		Short: "Print a user's streak and preferences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			st, err := store.Open(ctx, storeOptions(cfg, os.Getenv), logger)
			if err != nil {
				return err
			}
			defer st.Close()

			userID := args[0]
			streaks := streak.NewService(st, persona.DefaultRewardTiers, cfg.ResetAfter(), logger)
			p := prefs.NewService(st, logger)
			printInspect(cmd.OutOrStdout(), userID, streaks.Get(ctx, userID), p.Get(ctx, userID))
			return nil
		},
	}
}

func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(opts.envPath); err != nil {
		fmt.Fprintf(os.Stderr, "No %s file found, relying on environment variables\n", opts.envPath)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid config")
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build logger")
	}
	return cfg, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level == "debug" {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, getenv func(string) string) error {
	token := getenv("DISCORD_TOKEN")
	if token == "" {
		return errors.New("missing required environment variable: DISCORD_TOKEN")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := buildProviders(ctx, cfg, getenv)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, storeOptions(cfg, getenv), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := persona.Default()
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.Window())
	dispatcher := llm.NewDispatcher(limiter, cfg.ProviderTimeout(), logger, providers...)
	streaks := streak.NewService(st, registry.Tiers(), cfg.ResetAfter(), logger)

	svc := bot.NewService(bot.ServiceConfig{
		Personas:    registry,
		Limiter:     limiter,
		Generator:   dispatcher,
		Streaks:     streaks,
		Prefs:       prefs.NewService(st, logger),
		DefaultMode: cfg.Bot.DefaultMode,
		Logger:      logger,
	})
	handler := bot.NewHandler(svc, logger)

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return errors.Wrap(err, "error creating Discord session")
	}
	dg.AddHandler(handler.InteractionCreate)

	if err := dg.Open(); err != nil {
		return errors.Wrap(err, "error opening connection")
	}
	defer dg.Close()

	handler.SetAppID(dg.State.User.ID)

	guildID := getenv("DISCORD_GUILD_ID")
	registered, err := bot.RegisterSlashCommands(dg, guildID, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := bot.UnregisterSlashCommands(dg, guildID, registered, logger); err != nil {
			logger.Warn("error unregistering slash commands", zap.Error(err))
		}
	}()

	if err := bot.SetPresence(dg); err != nil {
		logger.Warn("error setting custom status", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Status.Addr != "" {
		srv := status.NewServer(cfg.Status.Addr, version, limiter, streaks, dispatcher.Providers(), logger)
		g.Go(func() error { return srv.Run(gctx) })
	}

	logger.Info("smelty is running",
		zap.Strings("providers", dispatcher.Providers()),
		zap.String("invite", bot.InviteURL(dg.State.User.ID)))

	<-gctx.Done()
	logger.Info("shutting down")
	err = g.Wait()
	handler.Shutdown()
	return err
}

// buildProviders returns the configured chain in order, skipping slots whose
// key is missing.
func buildProviders(ctx context.Context, cfg *config.Config, getenv func(string) string) ([]llm.Provider, error) {
	var chain []llm.Provider
	for _, pc := range []config.ProviderConfig{cfg.Providers.Primary, cfg.Providers.Secondary} {
		p, err := buildProvider(ctx, cfg, pc, getenv)
		if err != nil {
			return nil, err
		}
		if p != nil {
			chain = append(chain, p)
		}
	}
	if len(chain) == 0 {
		return nil, errors.New("no provider configured: set DEEPSEEK_API_KEY, HUGGINGFACE_TOKEN or GEMINI_API_KEY")
	}
	return chain, nil
}

func buildProvider(ctx context.Context, cfg *config.Config, pc config.ProviderConfig, getenv func(string) string) (llm.Provider, error) {
	gen := cfg.Providers
	switch pc.Kind {
	case config.ProviderDeepSeek:
		c := deepseek.NewClient(getenv("DEEPSEEK_API_KEY"), deepseek.Config{
			BaseURL:     pc.BaseURL,
			Model:       pc.Model,
			MaxTokens:   gen.MaxTokens,
			Temperature: gen.Temperature,
			TopP:        gen.TopP,
		})
		if c == nil {
			return nil, nil
		}
		return c, nil
	case config.ProviderHuggingFace:
		url := pc.BaseURL
		if url == "" && pc.Model != "" {
			url = "https://api-inference.huggingface.co/models/" + pc.Model
		}
		c := huggingface.NewClient(getenv("HUGGINGFACE_TOKEN"), huggingface.Config{
			URL:         url,
			MaxTokens:   gen.MaxTokens,
			Temperature: gen.Temperature,
			TopP:        gen.TopP,
		})
		if c == nil {
			return nil, nil
		}
		return c, nil
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, getenv("GEMINI_API_KEY"), gemini.Config{
			Model:       pc.Model,
			BaseURL:     pc.BaseURL,
			MaxTokens:   gen.MaxTokens,
			Temperature: gen.Temperature,
			TopP:        gen.TopP,
		})
		if err != nil || c == nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.Errorf("unknown provider kind %q", pc.Kind)
	}
}

func storeOptions(cfg *config.Config, getenv func(string) string) store.Options {
	ns := getenv("SURREAL_DB_NAMESPACE")
	if ns == "" {
		ns = "smelty"
	}
	db := getenv("SURREAL_DB_DATABASE")
	if db == "" {
		db = "bot"
	}
	return store.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		Surreal: surreal.Config{
			Host:      surrealURL(getenv("SURREAL_DB_HOST")),
			User:      getenv("SURREAL_DB_USER"),
			Pass:      getenv("SURREAL_DB_PASS"),
			Namespace: ns,
			Database:  db,
		},
		RedisURL:    getenv("REDIS_URL"),
		CachePrefix: cfg.Cache.Prefix,
		CacheTTL:    cfg.CacheTTL(),
	}
}

// surrealURL adds the websocket scheme and rpc path to a bare host.
func surrealURL(host string) string {
	if host == "" || strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return host
	}
	return "wss://" + host + "/rpc"
}

func printInspect(w io.Writer, userID string, st streak.State, p prefs.Preferences) {
	mode := p.DefaultMode
	if mode == "" {
		mode = "(none)"
	}
	unlocked := "(none)"
	if len(st.Unlocked) > 0 {
		unlocked = strings.Join(st.Unlocked, ", ")
	}
	fmt.Fprintf(w, "user:            %s\n", userID)
	fmt.Fprintf(w, "current streak:  %d\n", st.Current)
	fmt.Fprintf(w, "highest streak:  %d\n", st.Highest)
	fmt.Fprintf(w, "unlocked:        %s\n", unlocked)
	fmt.Fprintf(w, "default mode:    %s\n", mode)
	fmt.Fprintf(w, "response style:  %s\n", p.Display.ResponseStyle)
	fmt.Fprintf(w, "mention style:   %s\n", p.Display.MentionStyle)
	fmt.Fprintf(w, "streak display:  %s\n", p.Display.StreakDisplay)
}
