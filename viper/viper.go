// Package viper loads configuration from defaults, an optional config file,
// OMNIRAG_* environment variables, and command-line flags, in increasing
// order of precedence.
package viper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/omnirag"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	spfviper "github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "OMNIRAG"

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// DefaultMaxFileSize is the default per-file upload ceiling.
const DefaultMaxFileSize = 10 << 20

// ErrNoCredentials is returned when no API key can be found.
var ErrNoCredentials = errors.New("no API key configured")

// Config is the resolved application configuration.
type Config struct {
	Provider  string          `mapstructure:"provider"`
	Model     string          `mapstructure:"model"`
	APIKey    string          `mapstructure:"api_key"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// ChatConfig holds the per-session generation settings.
type ChatConfig struct {
	Temperature     float64 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	WebSearch       bool    `mapstructure:"web_search"`
	Instructions    string  `mapstructure:"instructions"`
	HistoryPolicy   string  `mapstructure:"history_policy"`
}

// DocumentsConfig limits document uploads.
type DocumentsConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// ServerConfig configures the HTTP server started by serve.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LogConfig selects the log level, format and destination.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
	File   string `mapstructure:"file"`
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"provider":       "provider",
	"model":          "model",
	"api-key":        "api_key",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-file":       "log.file",
	"history-policy": "chat.history_policy",
	"addr":           "server.address",
}

func setDefaults(v *spfviper.Viper) {
	v.SetDefault("provider", "")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("chat.temperature", omnirag.DefaultTemperature)
	v.SetDefault("chat.max_output_tokens", omnirag.DefaultMaxOutputTokens)
	v.SetDefault("chat.web_search", true)
	v.SetDefault("chat.instructions", "")
	v.SetDefault("chat.history_policy", string(omnirag.HistorySoftReset))
	v.SetDefault("documents.max_file_size", DefaultMaxFileSize)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Load reads the configuration. path names an optional config file whose
// format follows its extension. flags may be nil; only flags listed in
// FlagKeys are bound, and only when set on the command line.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := spfviper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Provider {
	case "", ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q: %w", c.Provider, omnirag.ErrValidation)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be in [0, 2], got %g: %w", c.Chat.Temperature, omnirag.ErrValidation)
	}
	if c.Provider == ProviderAnthropic && c.Chat.Temperature > 1 {
		return fmt.Errorf("chat.temperature must be in [0, 1] for %s, got %g: %w", ProviderAnthropic, c.Chat.Temperature, omnirag.ErrValidation)
	}
	if c.Chat.MaxOutputTokens <= 0 {
		return fmt.Errorf("chat.max_output_tokens must be positive, got %d: %w", c.Chat.MaxOutputTokens, omnirag.ErrValidation)
	}
	if _, err := omnirag.ParseHistoryPolicy(c.Chat.HistoryPolicy); err != nil {
		return fmt.Errorf("chat.history_policy: %w", err)
	}
	if c.Documents.MaxFileSize < 0 {
		return fmt.Errorf("documents.max_file_size must be non-negative: %w", omnirag.ErrValidation)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %v: %w", err, omnirag.ErrValidation)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q: %w", c.Log.Format, omnirag.ErrValidation)
	}
	return nil
}

// ChatConfig returns the session parameters for omnirag.NewChat.
func (c Config) ChatConfig() omnirag.ChatConfig {
	policy, _ := omnirag.ParseHistoryPolicy(c.Chat.HistoryPolicy)
	return omnirag.ChatConfig{
		Temperature:     c.Chat.Temperature,
		MaxOutputTokens: c.Chat.MaxOutputTokens,
		WebSearch:       c.Chat.WebSearch,
		Instructions:    c.Chat.Instructions,
		HistoryPolicy:   policy,
	}
}

// Credentials resolves the provider and its API key. An explicit provider
// takes its key from api_key or the provider's own variable. Otherwise the
// provider is detected from GEMINI_API_KEY, then API_KEY (Gemini), then
// ANTHROPIC_API_KEY.
func (c Config) Credentials(getenv func(string) string) (provider, apiKey string, err error) {
	switch c.Provider {
	case ProviderGemini:
		key := firstNonEmpty(c.APIKey, getenv("GEMINI_API_KEY"), getenv("API_KEY"))
		if key == "" {
			return "", "", fmt.Errorf("gemini: %w (set GEMINI_API_KEY)", ErrNoCredentials)
		}
		return ProviderGemini, key, nil
	case ProviderAnthropic:
		key := firstNonEmpty(c.APIKey, getenv("ANTHROPIC_API_KEY"))
		if key == "" {
			return "", "", fmt.Errorf("anthropic: %w (set ANTHROPIC_API_KEY)", ErrNoCredentials)
		}
		return ProviderAnthropic, key, nil
	}
	if key := firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("API_KEY")); key != "" {
		return ProviderGemini, firstNonEmpty(c.APIKey, key), nil
	}
	if key := getenv("ANTHROPIC_API_KEY"); key != "" {
		return ProviderAnthropic, firstNonEmpty(c.APIKey, key), nil
	}
	if c.APIKey != "" {
		return ProviderGemini, c.APIKey, nil
	}
	return "", "", fmt.Errorf("%w: set GEMINI_API_KEY or ANTHROPIC_API_KEY", ErrNoCredentials)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
