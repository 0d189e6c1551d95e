package omnirag

import (
	"context"
	"fmt"
)

// Defaults for new sessions.
const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 8192
)

// Provider opens conversation sessions against a remote model service.
type Provider interface {
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Session is a stateful exchange with the remote model. Its system prompt
// is fixed at creation; a changed document set requires a new session.
// Send returns a fresh one-shot stream for each call.
type Session interface {
	Config() SessionConfig
	Send(ctx context.Context, text string) (Stream, error)
}

// SessionConfig carries the parameters a session is opened with.
type SessionConfig struct {
	SystemPrompt    string
	Temperature     float64
	MaxOutputTokens int
	// WebSearch grants the model the remote search tool for every turn.
	WebSearch bool
	// History seeds the session with prior turns. Only user and model
	// messages are meaningful to providers.
	History []Message
}

// Validate checks universal constraints on SessionConfig.
// Providers may apply additional provider-specific validation.
func (c SessionConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %g: %w", c.Temperature, ErrValidation)
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("max_output_tokens must be non-negative, got %d: %w", c.MaxOutputTokens, ErrValidation)
	}
	for i, m := range c.History {
		if m.Role != RoleUser && m.Role != RoleModel {
			return fmt.Errorf("history message %d has role %q: %w", i, m.Role, ErrValidation)
		}
	}
	return nil
}
