package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	ProviderDeepSeek    = "deepseek"
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"

	StorageSQLite  = "sqlite"
	StorageSurreal = "surreal"
)

type ProviderConfig struct {
	Kind    string `yaml:"kind"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	RateLimit struct {
		MaxRequests   int `yaml:"max_requests"`
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"rate_limit"`
	Providers struct {
		TimeoutSeconds int            `yaml:"timeout_seconds"`
		MaxTokens      int            `yaml:"max_tokens"`
		Temperature    float64        `yaml:"temperature"`
		TopP           float64        `yaml:"top_p"`
		Primary        ProviderConfig `yaml:"primary"`
		Secondary      ProviderConfig `yaml:"secondary"`
	} `yaml:"providers"`
	Streak struct {
		ResetAfterHours int `yaml:"reset_after_hours"`
	} `yaml:"streak"`
	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`
	Cache struct {
		Prefix     string `yaml:"prefix"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"cache"`
	Status struct {
		Addr string `yaml:"addr"`
	} `yaml:"status"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Bot struct {
		DefaultMode string `yaml:"default_mode"`
	} `yaml:"bot"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		config.applyDefaults()
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	config.applyDefaults()
	return config, nil
}

// applyDefaults fills zero fields.
func (c *Config) applyDefaults() {
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 5
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}

	p := &c.Providers
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = 10
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 150
	}
	if p.Temperature == 0 {
		p.Temperature = 0.7
	}
	if p.TopP == 0 {
		p.TopP = 0.9
	}
	if p.Primary == (ProviderConfig{}) {
		p.Primary = ProviderConfig{
			Kind:    ProviderDeepSeek,
			Model:   "deepseek-chat",
			BaseURL: "https://api.deepseek.com/v1",
		}
	}
	if p.Secondary == (ProviderConfig{}) {
		p.Secondary = ProviderConfig{
			Kind:    ProviderHuggingFace,
			Model:   "deepseek-ai/deepseek-r1",
			BaseURL: "https://api-inference.huggingface.co/models/deepseek-ai/deepseek-r1",
		}
	}

	if c.Streak.ResetAfterHours == 0 {
		c.Streak.ResetAfterHours = 24
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "discord_bot.db"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "smelty"
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Bot.DefaultMode == "" {
		c.Bot.DefaultMode = "cynical_vc"
	}
}

// Validate rejects settings the bot cannot start with.
func (c *Config) Validate() error {
	if c.RateLimit.MaxRequests <= 0 {
		return errors.Errorf("rate_limit.max_requests must be positive, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return errors.Errorf("rate_limit.window_seconds must be positive, got %d", c.RateLimit.WindowSeconds)
	}
	if c.Providers.TimeoutSeconds <= 0 {
		return errors.Errorf("providers.timeout_seconds must be positive, got %d", c.Providers.TimeoutSeconds)
	}
	if c.Providers.MaxTokens <= 0 {
		return errors.Errorf("providers.max_tokens must be positive, got %d", c.Providers.MaxTokens)
	}
	if c.Streak.ResetAfterHours <= 0 {
		return errors.Errorf("streak.reset_after_hours must be positive, got %d", c.Streak.ResetAfterHours)
	}
	for name, p := range map[string]ProviderConfig{"primary": c.Providers.Primary, "secondary": c.Providers.Secondary} {
		switch p.Kind {
		case ProviderDeepSeek, ProviderHuggingFace, ProviderGemini:
		default:
			return errors.Errorf("providers.%s.kind %q is not one of deepseek, huggingface, gemini", name, p.Kind)
		}
	}
	switch c.Storage.Driver {
	case StorageSQLite, StorageSurreal:
	default:
		return errors.Errorf("storage.driver %q is not one of sqlite, surreal", c.Storage.Driver)
	}
	switch c.Log.Level {
	case "debug", "info":
	default:
		return errors.Errorf("log.level %q is not one of debug, info", c.Log.Level)
	}
	return nil
}

func (c *Config) Window() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

func (c *Config) ResetAfter() time.Duration {
	return time.Duration(c.Streak.ResetAfterHours) * time.Hour
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
