// Package prometheus instruments providers and chat events with Prometheus
// metrics.
package prometheus

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/fwojciec/omnirag"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes recorded by omnirag_turns_total.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned" // closed before the end, usually a stop
)

// Metrics holds the collectors. Create one per registry.
type Metrics struct {
	sessions      *prom.CounterVec
	turns         *prom.CounterVec
	fragments     *prom.CounterVec
	firstFragment *prom.HistogramVec
	turnDuration  *prom.HistogramVec
	inflight      *prom.GaugeVec
	documents     *prom.CounterVec
	storeSize     prom.Gauge
	storeTokens   prom.Gauge
}

// New registers the collectors with reg.
func New(reg prom.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessions: f.NewCounterVec(prom.CounterOpts{
			Name: "omnirag_sessions_total",
			Help: "Sessions opened, by provider and result.",
		}, []string{"provider", "result"}),
		turns: f.NewCounterVec(prom.CounterOpts{
			Name: "omnirag_turns_total",
			Help: "Streamed turns, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		fragments: f.NewCounterVec(prom.CounterOpts{
			Name: "omnirag_fragments_total",
			Help: "Stream fragments received.",
		}, []string{"provider"}),
		firstFragment: f.NewHistogramVec(prom.HistogramOpts{
			Name:    "omnirag_first_fragment_seconds",
			Help:    "Time from send to the first fragment.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		turnDuration: f.NewHistogramVec(prom.HistogramOpts{
			Name:    "omnirag_turn_seconds",
			Help:    "Time from send to the end of the stream.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
		inflight: f.NewGaugeVec(prom.GaugeOpts{
			Name: "omnirag_turns_inflight",
			Help: "Streams currently open.",
		}, []string{"provider"}),
		documents: f.NewCounterVec(prom.CounterOpts{
			Name: "omnirag_documents_total",
			Help: "Document store changes, by operation.",
		}, []string{"op"}),
		storeSize: f.NewGauge(prom.GaugeOpts{
			Name: "omnirag_documents_bytes",
			Help: "Total size of stored documents.",
		}),
		storeTokens: f.NewGauge(prom.GaugeOpts{
			Name: "omnirag_documents_tokens",
			Help: "Estimated token total of stored documents.",
		}),
	}
}

// Provider wraps p so every session and stream it creates is recorded
// under the given provider name.
func (m *Metrics) Provider(name string, p omnirag.Provider) omnirag.Provider {
	return &provider{name: name, next: p, m: m}
}

// ObserveEvent records document store changes. It is meant to be chained
// into a chat event handler.
func (m *Metrics) ObserveEvent(e omnirag.Event) {
	switch e := e.(type) {
	case omnirag.EventDocumentsAdded:
		m.documents.WithLabelValues("added").Add(float64(len(e.Result.Added)))
		m.documents.WithLabelValues("failed").Add(float64(len(e.Result.Failed)))
	case omnirag.EventDocumentRemoved:
		m.documents.WithLabelValues("removed").Inc()
	}
}

// ObserveStore sets the store gauges from s.
func (m *Metrics) ObserveStore(s *omnirag.DocumentStore) {
	m.storeSize.Set(float64(s.TotalSize()))
	m.storeTokens.Set(float64(s.TotalTokens()))
}

type provider struct {
	name string
	next omnirag.Provider
	m    *Metrics
}

var _ omnirag.Provider = (*provider)(nil)

func (p *provider) NewSession(ctx context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error) {
	s, err := p.next.NewSession(ctx, cfg)
	if err != nil {
		p.m.sessions.WithLabelValues(p.name, "error").Inc()
		return nil, err
	}
	p.m.sessions.WithLabelValues(p.name, "ok").Inc()
	return &session{Session: s, p: p}, nil
}

type session struct {
	omnirag.Session
	p *provider
}

func (s *session) Send(ctx context.Context, text string) (omnirag.Stream, error) {
	start := time.Now()
	st, err := s.Session.Send(ctx, text)
	if err != nil {
		s.p.m.turns.WithLabelValues(s.p.name, OutcomeFailed).Inc()
		return nil, err
	}
	s.p.m.inflight.WithLabelValues(s.p.name).Inc()
	return &stream{Stream: st, p: s.p, start: start}, nil
}

type stream struct {
	omnirag.Stream
	p     *provider
	start time.Time
	first bool
	once  sync.Once
}

func (s *stream) Next() (omnirag.Fragment, error) {
	f, err := s.Stream.Next()
	switch {
	case err == nil:
		if !s.first {
			s.first = true
			s.p.m.firstFragment.WithLabelValues(s.p.name).Observe(time.Since(s.start).Seconds())
		}
		s.p.m.fragments.WithLabelValues(s.p.name).Inc()
	case errors.Is(err, io.EOF):
		s.finish(OutcomeCompleted)
	default:
		s.finish(OutcomeFailed)
	}
	return f, err
}

func (s *stream) Close() error {
	s.finish(OutcomeAbandoned)
	return s.Stream.Close()
}

func (s *stream) finish(outcome string) {
	s.once.Do(func() {
		m := s.p.m
		m.inflight.WithLabelValues(s.p.name).Dec()
		m.turns.WithLabelValues(s.p.name, outcome).Inc()
		m.turnDuration.WithLabelValues(s.p.name).Observe(time.Since(s.start).Seconds())
	})
}
