package main

import (
	"context"
	"io"
	"os"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/viper"
	"github.com/spf13/cobra"
)

// options carries the process environment into the commands. Env vars are
// only read through getenv.
type options struct {
	getenv      func(string) string
	stdout      io.Writer
	stderr      io.Writer
	newProvider func(ctx context.Context, name, key, model string) (omnirag.Provider, error)

	configPath string
}

func newOptions(getenv func(string) string) *options {
	return &options{
		getenv:      getenv,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		newProvider: newProvider,
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "omnirag",
		Short: "Chat with your documents",
		Long: `omnirag places uploaded text documents in the model's context and
answers questions about them, citing web sources when search is enabled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(opts.stdout)
	cmd.SetErr(opts.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a config file (yaml, toml or json)")
	flags.String("provider", "", "Provider: gemini, anthropic (detected from API key variables if omitted)")
	flags.String("model", "", "Model ID (provider default if omitted)")
	flags.String("api-key", "", "API key (overrides the provider's environment variable)")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "Log format: text, json")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
	flags.String("history-policy", "", "What a new session keeps: soft-reset, replay")

	cmd.AddCommand(
		newServeCmd(opts),
		newTUICmd(opts),
		newAskCmd(opts),
	)
	return cmd
}

// loadConfig reads settings with the command's flags taking precedence.
func (o *options) loadConfig(cmd *cobra.Command) (viper.Config, error) {
	return viper.Load(o.configPath, cmd.Flags())
}
