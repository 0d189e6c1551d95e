package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/fs"
	"github.com/fwojciec/omnirag/prometheus"
	"github.com/fwojciec/omnirag/readability"
	"github.com/fwojciec/omnirag/viper"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// app is the wiring shared by all commands.
type app struct {
	cfg      viper.Config
	provider string
	chat     *omnirag.Chat
	log      *logrus.Logger
	closeLog func() error
}

// newApp resolves credentials, builds the provider, and creates the chat.
// metrics may be nil. Logs go to logOut unless a log file is configured.
func (o *options) newApp(ctx context.Context, cfg viper.Config, metrics *prometheus.Metrics, logOut io.Writer) (*app, error) {
	log, closeLog, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	name, key, err := cfg.Credentials(o.getenv)
	if err != nil {
		closeLog()
		return nil, err
	}
	p, err := o.newProvider(ctx, name, key, cfg.Model)
	if err != nil {
		closeLog()
		return nil, err
	}
	if metrics != nil {
		p = metrics.Provider(name, p)
	}

	store := omnirag.NewDocumentStore(
		omnirag.WithDocumentIDs(uuid.NewString),
		omnirag.WithMaxFileSize(cfg.Documents.MaxFileSize),
	)
	entry := log.WithField("provider", name)
	chat := omnirag.NewChat(p,
		omnirag.WithChatConfig(cfg.ChatConfig()),
		omnirag.WithDocumentStore(store),
		omnirag.WithMessageIDs(uuid.NewString),
		omnirag.WithEventHandler(func(e omnirag.Event) {
			logEvent(entry, e)
			if metrics != nil {
				metrics.ObserveEvent(e)
				metrics.ObserveStore(store)
			}
		}),
	)

	return &app{cfg: cfg, provider: name, chat: chat, log: log, closeLog: closeLog}, nil
}

// open opens the first session and adds the documents matched by patterns.
// A failed session is logged rather than returned so that interactive
// front-ends can still start and retry on the next upload.
func (a *app) open(ctx context.Context, patterns []string) error {
	if err := a.chat.Open(ctx); err != nil {
		a.log.WithError(err).Warn("open session")
	}
	if len(patterns) == 0 {
		return nil
	}
	files, err := fs.Collect(patterns...)
	if err != nil {
		return fmt.Errorf("documents: %w", err)
	}
	res, err := a.chat.AddDocuments(ctx, readability.Wrap(files))
	for _, f := range res.Failed {
		a.log.WithError(f.Err).WithField("file", f.Name).Warn("skip document")
	}
	if err != nil {
		a.log.WithError(err).Warn("refresh session")
	}
	return nil
}

func (a *app) Close() error {
	return a.closeLog()
}
