// Package mock provides test doubles for omnirag interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/omnirag"
)

// Interface compliance checks.
var (
	_ omnirag.Provider = (*Provider)(nil)
	_ omnirag.Session  = (*Session)(nil)
)

// Provider is a test double for omnirag.Provider.
// Set NewSessionFn before calling NewSession.
type Provider struct {
	NewSessionFn func(ctx context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error)
}

// NewSession delegates to NewSessionFn.
func (p *Provider) NewSession(ctx context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error) {
	return p.NewSessionFn(ctx, cfg)
}

// Session is a test double for omnirag.Session.
// SendFn panics when nil to catch missing setup. ConfigFn is nil-safe and
// falls back to the Cfg field.
type Session struct {
	Cfg      omnirag.SessionConfig
	ConfigFn func() omnirag.SessionConfig
	SendFn   func(ctx context.Context, text string) (omnirag.Stream, error)
}

// Config delegates to ConfigFn. Returns Cfg when ConfigFn is nil.
func (s *Session) Config() omnirag.SessionConfig {
	if s.ConfigFn == nil {
		return s.Cfg
	}
	return s.ConfigFn()
}

// Send delegates to SendFn.
func (s *Session) Send(ctx context.Context, text string) (omnirag.Stream, error) {
	return s.SendFn(ctx, text)
}
