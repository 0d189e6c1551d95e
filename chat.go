package omnirag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ChatConfig holds the fixed parameters every session is opened with.
type ChatConfig struct {
	Temperature     float64
	MaxOutputTokens int
	WebSearch       bool
	// Instructions are appended to the system prompt after the knowledge base.
	Instructions  string
	HistoryPolicy HistoryPolicy
}

// DefaultChatConfig returns the standard session parameters: temperature
// 0.7, an 8192 token output ceiling and web search enabled.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
		WebSearch:       true,
		HistoryPolicy:   HistorySoftReset,
	}
}

// Chat orchestrates the document store, the active session, and the
// message log. It admits one send at a time.
type Chat struct {
	provider Provider
	docs     *DocumentStore
	log      *MessageLog
	agg      *Aggregator
	cfg      ChatConfig
	newID    func() string
	now      func() time.Time
	onEvent  func(Event)

	mu         sync.Mutex
	session    Session
	sessionVer uint64
	status     Status
	err        error
	running    bool
	cancel     context.CancelFunc
}

// ChatOption configures a [Chat].
type ChatOption func(*Chat)

// WithChatConfig overrides the default session parameters.
func WithChatConfig(cfg ChatConfig) ChatOption {
	return func(c *Chat) { c.cfg = cfg }
}

// WithDocumentStore sets the document store. By default Chat creates an
// empty store with default options.
func WithDocumentStore(s *DocumentStore) ChatOption {
	return func(c *Chat) { c.docs = s }
}

// WithMessageIDs sets the ID generator for messages.
func WithMessageIDs(newID func() string) ChatOption {
	return func(c *Chat) { c.newID = newID }
}

// WithClock sets the clock used for message timestamps.
func WithClock(now func() time.Time) ChatOption {
	return func(c *Chat) { c.now = now }
}

// WithEventHandler sets a callback that receives every chat event. It is
// called synchronously and must not call back into the Chat.
func WithEventHandler(h func(Event)) ChatOption {
	return func(c *Chat) { c.onEvent = h }
}

// NewChat creates a Chat using provider for sessions. Call Open before the
// first Send.
func NewChat(provider Provider, opts ...ChatOption) *Chat {
	c := &Chat{
		provider: provider,
		cfg:      DefaultChatConfig(),
		newID:    sequentialIDs("msg"),
		now:      time.Now,
		status:   StatusIdle,
	}
	for _, o := range opts {
		o(c)
	}
	if c.docs == nil {
		c.docs = NewDocumentStore()
	}
	c.log = NewMessageLog()
	c.agg = NewAggregator(c.log, c.newID, c.now)
	return c
}

// Open creates the session for the current document set, which may be
// empty.
func (c *Chat) Open(ctx context.Context) error {
	return c.refreshSession(ctx)
}

// AddDocuments reads files into the document store and, when at least one
// document was added, replaces the session. Per-file failures are reported
// in the result; the returned error is reserved for session failures.
func (c *Chat) AddDocuments(ctx context.Context, files []File) (AddResult, error) {
	res := c.docs.Add(ctx, files)
	c.emit(EventDocumentsAdded{Result: res})
	if len(res.Added) == 0 {
		return res, nil
	}
	return res, c.refreshSession(ctx)
}

// RemoveDocument removes the document with the given ID and replaces the
// session. Removing an unknown ID is a no-op and keeps the session.
func (c *Chat) RemoveDocument(ctx context.Context, id string) (bool, error) {
	if !c.docs.Remove(id) {
		return false, nil
	}
	c.emit(EventDocumentRemoved{ID: id})
	return true, c.refreshSession(ctx)
}

// refreshSession opens a session for the current document set. On failure
// the previous session stays active. When documents change concurrently,
// only a session built from the newest document set is installed.
func (c *Chat) refreshSession(ctx context.Context) error {
	docs, version := c.docs.Snapshot()
	cfg := SessionConfig{
		SystemPrompt:    BuildPrompt(docs, c.cfg.Instructions),
		Temperature:     c.cfg.Temperature,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		WebSearch:       c.cfg.WebSearch,
	}
	if c.cfg.HistoryPolicy == HistoryReplay {
		cfg.History = c.log.Turns()
	}

	var session Session
	err := cfg.Validate()
	if err == nil {
		session, err = c.provider.NewSession(ctx, cfg)
	}

	c.mu.Lock()
	if err != nil {
		err = fmt.Errorf("create session: %w", err)
		c.err = err
		if !c.running {
			c.status = StatusError
		}
		c.mu.Unlock()
		c.emit(EventSessionFailed{Err: err})
		return err
	}
	if c.session != nil && version < c.sessionVer {
		c.mu.Unlock()
		return nil
	}
	c.session = session
	c.sessionVer = version
	c.mu.Unlock()

	c.emit(EventSessionOpened{Config: cfg, Documents: len(docs)})
	return nil
}

// SendOption configures a single Send invocation.
type SendOption func(*sendConfig)

type sendConfig struct {
	onUpdate func(Message)
}

// WithUpdateHandler sets a callback that receives a copy of every message
// appended or replaced during the send: the user message, each snapshot of
// the model message, and the failure notice if the turn fails.
func WithUpdateHandler(h func(Message)) SendOption {
	return func(c *sendConfig) { c.onUpdate = h }
}

// Send submits text as a user message and streams the model's reply into
// the log. It blocks until the stream ends. A send issued while another is
// in flight returns ErrBusy without touching the log.
//
// On stream failure the partial reply is kept, a failure notice is
// appended, the status becomes StatusError, and the error is returned.
// Stop, or cancelling ctx, ends the turn like a normal completion. If a
// session refresh failed while the reply streamed, the turn still succeeds
// but the status ends as StatusError and Err reports the refresh failure.
func (c *Chat) Send(ctx context.Context, text string, opts ...SendOption) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	var cfg sendConfig
	for _, o := range opts {
		o(&cfg)
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	if c.session == nil {
		c.mu.Unlock()
		return Message{}, ErrNoSession
	}
	session := c.session
	user := Message{
		ID:        c.newID(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: c.now(),
	}
	if err := c.log.Append(user); err != nil {
		c.mu.Unlock()
		return Message{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.running = true
	c.cancel = cancel
	c.status = StatusLoading
	c.err = nil
	c.mu.Unlock()

	onUpdate := func(m Message) {
		if m.Streaming && m.Content != "" {
			c.mu.Lock()
			if c.status == StatusLoading {
				c.status = StatusStreaming
			}
			c.mu.Unlock()
		}
		if cfg.onUpdate != nil {
			cfg.onUpdate(m)
		}
		c.emit(EventMessage{Message: m})
	}
	onUpdate(user)

	msg, err := c.agg.Run(ctx, func(ctx context.Context) (Stream, error) {
		return session.Send(ctx, text)
	}, onUpdate)
	stopped := err == nil && ctx.Err() != nil

	c.mu.Lock()
	c.running = false
	c.cancel = nil
	switch {
	case err != nil:
		c.status = StatusError
		c.err = err
	case c.err != nil:
		// a session refresh failed while the reply streamed
		c.status = StatusError
	default:
		c.status = StatusIdle
	}
	c.mu.Unlock()

	c.emit(EventTurnFinished{Message: msg, Stopped: stopped, Err: err})
	return msg, err
}

// Stop cancels the in-flight send, if any, and reports whether there was
// one. The partial reply is kept and no failure notice is appended.
func (c *Chat) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Status returns the current activity state.
func (c *Chat) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error of the last failed operation, or nil once a later
// send starts. It is non-nil exactly when the status is StatusError, except
// while a send is streaming.
func (c *Chat) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Session returns the active session, or nil before Open succeeds.
func (c *Chat) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Messages returns a copy of the message log.
func (c *Chat) Messages() []Message { return c.log.Messages() }

// Documents returns a copy of the stored documents.
func (c *Chat) Documents() []Document { return c.docs.Documents() }

// TotalTokens returns the estimated token total of the stored documents.
func (c *Chat) TotalTokens() int { return c.docs.TotalTokens() }

// Store returns the document store.
func (c *Chat) Store() *DocumentStore { return c.docs }

// Config returns the session parameters.
func (c *Chat) Config() ChatConfig { return c.cfg }

func (c *Chat) emit(e Event) {
	if c.onEvent != nil {
		c.onEvent(e)
	}
}
