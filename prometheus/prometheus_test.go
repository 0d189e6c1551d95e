package prometheus_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/mock"
	"github.com/fwojciec/omnirag/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetrics(t *testing.T) *prometheus.Metrics {
	t.Helper()
	return prometheus.New(prom.NewRegistry())
}

func providerWith(stream func() omnirag.Stream) *mock.Provider {
	return &mock.Provider{
		NewSessionFn: func(_ context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error) {
			return &mock.Session{
				Cfg: cfg,
				SendFn: func(context.Context, string) (omnirag.Stream, error) {
					return stream(), nil
				},
			}, nil
		},
	}
}

func drain(t *testing.T, s omnirag.Stream) error {
	t.Helper()
	for {
		if _, err := s.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func TestProvider(t *testing.T) {
	t.Parallel()

	t.Run("records completed turn and fragments", func(t *testing.T) {
		t.Parallel()
		m := newMetrics(t)
		p := m.Provider("gemini", providerWith(func() omnirag.Stream {
			return mock.Fragments(nil, omnirag.Fragment{Text: "a"}, omnirag.Fragment{Text: "b"})
		}))

		sess, err := p.NewSession(context.Background(), omnirag.SessionConfig{Temperature: 0.7})
		require.NoError(t, err)
		stream, err := sess.Send(context.Background(), "hi")
		require.NoError(t, err)
		require.NoError(t, drain(t, stream))
		require.NoError(t, stream.Close())

		assert.InDelta(t, 1, m.Value("sessions", "gemini", "ok"), 0)
		assert.InDelta(t, 1, m.Value("turns", "gemini", prometheus.OutcomeCompleted), 0)
		assert.InDelta(t, 0, m.Value("turns", "gemini", prometheus.OutcomeAbandoned), 0)
		assert.InDelta(t, 2, m.Value("fragments", "gemini"), 0)
		assert.InDelta(t, 0, m.Value("inflight", "gemini"), 0)
		assert.Equal(t, 1, m.HistogramCount("first_fragment"))
		assert.Equal(t, 1, m.HistogramCount("turn"))
	})

	t.Run("records failed stream", func(t *testing.T) {
		t.Parallel()
		m := newMetrics(t)
		boom := errors.New("boom")
		p := m.Provider("anthropic", providerWith(func() omnirag.Stream {
			return mock.Fragments(boom, omnirag.Fragment{Text: "partial"})
		}))

		sess, err := p.NewSession(context.Background(), omnirag.SessionConfig{})
		require.NoError(t, err)
		stream, err := sess.Send(context.Background(), "hi")
		require.NoError(t, err)
		assert.ErrorIs(t, drain(t, stream), boom)
		require.NoError(t, stream.Close())

		assert.InDelta(t, 1, m.Value("turns", "anthropic", prometheus.OutcomeFailed), 0)
		assert.InDelta(t, 0, m.Value("turns", "anthropic", prometheus.OutcomeAbandoned), 0)
	})

	t.Run("records stream closed early as abandoned", func(t *testing.T) {
		t.Parallel()
		m := newMetrics(t)
		p := m.Provider("gemini", providerWith(func() omnirag.Stream {
			return mock.Fragments(nil, omnirag.Fragment{Text: "a"}, omnirag.Fragment{Text: "b"})
		}))

		sess, err := p.NewSession(context.Background(), omnirag.SessionConfig{})
		require.NoError(t, err)
		stream, err := sess.Send(context.Background(), "hi")
		require.NoError(t, err)
		_, err = stream.Next()
		require.NoError(t, err)
		assert.InDelta(t, 1, m.Value("inflight", "gemini"), 0)
		require.NoError(t, stream.Close())

		assert.InDelta(t, 1, m.Value("turns", "gemini", prometheus.OutcomeAbandoned), 0)
		assert.InDelta(t, 0, m.Value("inflight", "gemini"), 0)
	})

	t.Run("records session and send errors", func(t *testing.T) {
		t.Parallel()
		m := newMetrics(t)
		boom := errors.New("boom")
		failing := m.Provider("gemini", &mock.Provider{
			NewSessionFn: func(context.Context, omnirag.SessionConfig) (omnirag.Session, error) {
				return nil, boom
			},
		})
		_, err := failing.NewSession(context.Background(), omnirag.SessionConfig{})
		assert.ErrorIs(t, err, boom)
		assert.InDelta(t, 1, m.Value("sessions", "gemini", "error"), 0)

		sendFails := m.Provider("gemini", &mock.Provider{
			NewSessionFn: func(_ context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error) {
				return &mock.Session{SendFn: func(context.Context, string) (omnirag.Stream, error) {
					return nil, boom
				}}, nil
			},
		})
		sess, err := sendFails.NewSession(context.Background(), omnirag.SessionConfig{})
		require.NoError(t, err)
		_, err = sess.Send(context.Background(), "hi")
		assert.ErrorIs(t, err, boom)
		assert.InDelta(t, 1, m.Value("turns", "gemini", prometheus.OutcomeFailed), 0)
	})

	t.Run("wrapped session keeps config", func(t *testing.T) {
		t.Parallel()
		m := newMetrics(t)
		p := m.Provider("gemini", providerWith(func() omnirag.Stream { return mock.Fragments(nil) }))
		sess, err := p.NewSession(context.Background(), omnirag.SessionConfig{SystemPrompt: "sys"})
		require.NoError(t, err)
		assert.Equal(t, "sys", sess.Config().SystemPrompt)
	})
}

func TestObserve(t *testing.T) {
	t.Parallel()

	m := newMetrics(t)
	store := omnirag.NewDocumentStore()
	res := store.Add(context.Background(), []omnirag.File{
		mock.TextFile("notes.txt", "Paris is the capital of France."),
		&mock.File{FileName: "bad.bin", Data: []byte{0xff, 0xfe}},
	})
	m.ObserveEvent(omnirag.EventDocumentsAdded{Result: res})
	m.ObserveEvent(omnirag.EventDocumentRemoved{ID: "doc-1"})
	m.ObserveEvent(omnirag.EventMessage{})
	m.ObserveStore(store)

	assert.InDelta(t, 1, m.Value("documents", "added"), 0)
	assert.InDelta(t, 1, m.Value("documents", "failed"), 0)
	assert.InDelta(t, 1, m.Value("documents", "removed"), 0)
	assert.InDelta(t, 31, m.Value("store_bytes"), 0)
	assert.InDelta(t, 8, m.Value("store_tokens"), 0)
}
