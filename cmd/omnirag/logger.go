package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/viper"
	"github.com/sirupsen/logrus"
)

// newLogger builds the logger described by cfg. The returned func closes
// the log file, if one was opened.
func newLogger(cfg viper.LogConfig, out io.Writer) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.999Z07:00",
		})
	}

	closer := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f.Close
	}
	log.SetOutput(out)
	return log, closer, nil
}

// logEvent writes a chat event to log. Message snapshots are logged at
// trace level since a reply produces one per fragment.
func logEvent(log logrus.FieldLogger, e omnirag.Event) {
	switch e := e.(type) {
	case omnirag.EventSessionOpened:
		log.WithFields(logrus.Fields{
			"documents":     e.Documents,
			"prompt_chars":  len(e.Config.SystemPrompt),
			"history_turns": len(e.Config.History),
			"web_search":    e.Config.WebSearch,
		}).Info("session opened")
	case omnirag.EventSessionFailed:
		log.WithError(e.Err).Error("session failed")
	case omnirag.EventDocumentsAdded:
		log.WithFields(logrus.Fields{
			"added":  len(e.Result.Added),
			"failed": len(e.Result.Failed),
		}).Info("documents added")
	case omnirag.EventDocumentRemoved:
		log.WithField("id", e.ID).Info("document removed")
	case omnirag.EventMessage:
		log.WithFields(logrus.Fields{
			"id":        e.Message.ID,
			"role":      e.Message.Role,
			"chars":     len(e.Message.Content),
			"streaming": e.Message.Streaming,
		}).Trace("message")
	case omnirag.EventTurnFinished:
		entry := log.WithFields(logrus.Fields{
			"id":        e.Message.ID,
			"chars":     len(e.Message.Content),
			"citations": len(e.Message.Citations()),
			"stopped":   e.Stopped,
		})
		if e.Err != nil {
			entry.WithError(e.Err).Error("turn failed")
			return
		}
		entry.Info("turn finished")
	}
}
