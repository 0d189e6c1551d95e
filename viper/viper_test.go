package viper_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/viper"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("provider", "", "")
	fs.String("model", "", "")
	fs.String("api-key", "", "")
	fs.String("log-level", "", "")
	fs.String("history-policy", "", "")
	fs.String("addr", "", "")
	return fs
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := viper.Load("", nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.Provider)
		assert.InDelta(t, 0.7, cfg.Chat.Temperature, 1e-9)
		assert.Equal(t, 8192, cfg.Chat.MaxOutputTokens)
		assert.True(t, cfg.Chat.WebSearch)
		assert.Equal(t, "soft-reset", cfg.Chat.HistoryPolicy)
		assert.Equal(t, int64(10<<20), cfg.Documents.MaxFileSize)
		assert.Equal(t, ":8080", cfg.Server.Address)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("reads yaml config file", func(t *testing.T) {
		path := writeConfig(t, "omnirag.yaml", `
provider: anthropic
model: claude-test
chat:
  temperature: 0.2
  web_search: false
  instructions: Answer in French.
  history_policy: replay
server:
  address: 127.0.0.1:9000
`)
		cfg, err := viper.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.Provider)
		assert.Equal(t, "claude-test", cfg.Model)
		assert.InDelta(t, 0.2, cfg.Chat.Temperature, 1e-9)
		assert.False(t, cfg.Chat.WebSearch)
		assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
		assert.Equal(t, 8192, cfg.Chat.MaxOutputTokens)

		chat := cfg.ChatConfig()
		assert.Equal(t, omnirag.HistoryReplay, chat.HistoryPolicy)
		assert.Equal(t, "Answer in French.", chat.Instructions)
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		path := writeConfig(t, "omnirag.json", `{"chat": {"temperature": 0.2}}`)
		t.Setenv("OMNIRAG_CHAT_TEMPERATURE", "1.5")
		t.Setenv("OMNIRAG_LOG_FORMAT", "json")

		cfg, err := viper.Load(path, nil)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, cfg.Chat.Temperature, 1e-9)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("OMNIRAG_PROVIDER", "anthropic")
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--provider", "gemini", "--addr", ":7070"}))

		cfg, err := viper.Load("", fs)
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.Provider)
		assert.Equal(t, ":7070", cfg.Server.Address)
	})

	t.Run("unset flags keep defaults", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse(nil))

		cfg, err := viper.Load("", fs)
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "soft-reset", cfg.Chat.HistoryPolicy)
	})

	t.Run("returns error for missing config file", func(t *testing.T) {
		_, err := viper.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "provider: openai\n")
		_, err := viper.Load(path, nil)
		assert.ErrorIs(t, err, omnirag.ErrValidation)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() viper.Config {
		return viper.Config{
			Chat: viper.ChatConfig{Temperature: 0.7, MaxOutputTokens: 8192},
			Log:  viper.LogConfig{Level: "info", Format: "text"},
		}
	}

	t.Run("accepts valid config", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, valid().Validate())
	})

	t.Run("accepts gemini temperature above one", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Provider = viper.ProviderGemini
		cfg.Chat.Temperature = 1.5
		assert.NoError(t, cfg.Validate())
	})

	for name, mutate := range map[string]func(*viper.Config){
		"temperature":    func(c *viper.Config) { c.Chat.Temperature = 2.5 },
		"max tokens":     func(c *viper.Config) { c.Chat.MaxOutputTokens = 0 },
		"history policy": func(c *viper.Config) { c.Chat.HistoryPolicy = "forget" },
		"max file size":  func(c *viper.Config) { c.Documents.MaxFileSize = -1 },
		"log level":      func(c *viper.Config) { c.Log.Level = "loud" },
		"log format":     func(c *viper.Config) { c.Log.Format = "xml" },
		"anthropic temperature": func(c *viper.Config) {
			c.Provider = viper.ProviderAnthropic
			c.Chat.Temperature = 1.5
		},
	} {
		t.Run("rejects invalid "+name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), omnirag.ErrValidation)
		})
	}
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestCredentials(t *testing.T) {
	t.Parallel()

	t.Run("detects gemini from GEMINI_API_KEY", func(t *testing.T) {
		t.Parallel()
		p, key, err := viper.Config{}.Credentials(env(map[string]string{
			"GEMINI_API_KEY":    "g",
			"ANTHROPIC_API_KEY": "a",
		}))
		require.NoError(t, err)
		assert.Equal(t, viper.ProviderGemini, p)
		assert.Equal(t, "g", key)
	})

	t.Run("accepts API_KEY for gemini", func(t *testing.T) {
		t.Parallel()
		p, key, err := viper.Config{}.Credentials(env(map[string]string{"API_KEY": "k"}))
		require.NoError(t, err)
		assert.Equal(t, viper.ProviderGemini, p)
		assert.Equal(t, "k", key)
	})

	t.Run("detects anthropic", func(t *testing.T) {
		t.Parallel()
		p, key, err := viper.Config{}.Credentials(env(map[string]string{"ANTHROPIC_API_KEY": "a"}))
		require.NoError(t, err)
		assert.Equal(t, viper.ProviderAnthropic, p)
		assert.Equal(t, "a", key)
	})

	t.Run("explicit provider uses its own variable", func(t *testing.T) {
		t.Parallel()
		cfg := viper.Config{Provider: viper.ProviderAnthropic}
		p, key, err := cfg.Credentials(env(map[string]string{
			"GEMINI_API_KEY":    "g",
			"ANTHROPIC_API_KEY": "a",
		}))
		require.NoError(t, err)
		assert.Equal(t, viper.ProviderAnthropic, p)
		assert.Equal(t, "a", key)
	})

	t.Run("configured key wins", func(t *testing.T) {
		t.Parallel()
		cfg := viper.Config{Provider: viper.ProviderGemini, APIKey: "cfg"}
		_, key, err := cfg.Credentials(env(map[string]string{"GEMINI_API_KEY": "g"}))
		require.NoError(t, err)
		assert.Equal(t, "cfg", key)
	})

	t.Run("explicit provider without key fails", func(t *testing.T) {
		t.Parallel()
		cfg := viper.Config{Provider: viper.ProviderGemini}
		_, _, err := cfg.Credentials(env(map[string]string{"ANTHROPIC_API_KEY": "a"}))
		assert.ErrorIs(t, err, viper.ErrNoCredentials)
	})

	t.Run("no key at all fails", func(t *testing.T) {
		t.Parallel()
		_, _, err := viper.Config{}.Credentials(env(nil))
		assert.ErrorIs(t, err, viper.ErrNoCredentials)
	})
}
