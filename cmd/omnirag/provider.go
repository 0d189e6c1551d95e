package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/anthropic"
	"github.com/fwojciec/omnirag/gemini"
	"github.com/fwojciec/omnirag/viper"
)

// newProvider constructs the named provider. An empty model selects the
// provider default.
func newProvider(ctx context.Context, name, key, model string) (omnirag.Provider, error) {
	switch name {
	case viper.ProviderAnthropic:
		var opts []anthropic.Option
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		return anthropic.New(key, opts...), nil
	case viper.ProviderGemini:
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		client, err := gemini.New(ctx, key, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be %q or %q", name, viper.ProviderGemini, viper.ProviderAnthropic)
	}
}
