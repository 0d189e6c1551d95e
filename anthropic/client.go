package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/fwojciec/omnirag"
)

// Interface compliance checks.
var (
	_ omnirag.Provider = (*Client)(nil)
	_ omnirag.Session  = (*session)(nil)
)

// Client implements [omnirag.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxUses    int
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithMaxSearches caps the number of web searches per turn.
func WithMaxSearches(n int) Option {
	return func(c *Client) { c.maxUses = n }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		maxUses:    defaultMaxUses,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the model ID sessions are opened with.
func (c *Client) Model() string { return c.model }

// NewSession returns a session seeded with cfg.History. No request is
// made until the first Send.
func (c *Client) NewSession(ctx context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if cfg.Temperature > 1 {
		return nil, fmt.Errorf("anthropic: temperature must be in [0, 1], got %g: %w", cfg.Temperature, omnirag.ErrValidation)
	}
	return &session{
		client:  c,
		cfg:     cfg,
		history: convertHistory(cfg.History),
	}, nil
}

type session struct {
	client *Client
	cfg    omnirag.SessionConfig

	mu      sync.Mutex
	history []apiMessage
}

func (s *session) Config() omnirag.SessionConfig { return s.cfg }

// Send posts the history plus text and streams the reply. The turn is
// added to the history only when the reply completes.
func (s *session) Send(ctx context.Context, text string) (omnirag.Stream, error) {
	user := apiMessage{Role: "user", Content: []apiContentBlock{{Type: "text", Text: text}}}

	s.mu.Lock()
	msgs := append(append([]apiMessage(nil), s.history...), user)
	s.mu.Unlock()

	body, err := s.client.buildRequestBody(s.cfg, msgs)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	resp, err := s.client.post(ctx, body)
	if err != nil {
		return nil, err
	}
	return newStream(ctx, resp.Body, func(reply string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.history = append(s.history, user, apiMessage{
			Role:    "assistant",
			Content: []apiContentBlock{{Type: "text", Text: reply}},
		})
	}), nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	return resp, nil
}

func (c *Client) buildRequestBody(cfg omnirag.SessionConfig, msgs []apiMessage) ([]byte, error) {
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	temp := cfg.Temperature
	req := apiRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      convertSystem(cfg.SystemPrompt),
		Messages:    msgs,
		Temperature: &temp,
	}
	if cfg.WebSearch {
		req.Tools = []apiTool{{Type: webSearchType, Name: "web_search", MaxUses: c.maxUses}}
	}
	return json.Marshal(req)
}

// convertSystem converts a system prompt to content blocks with a cache
// breakpoint, so the knowledge base is cached across turns. Returns nil
// when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{
		Type:         "text",
		Text:         prompt,
		CacheControl: &apiCacheControl{Type: "ephemeral"},
	}}
}

func convertHistory(msgs []omnirag.Message) []apiMessage {
	var result []apiMessage
	for _, m := range msgs {
		var role string
		switch m.Role {
		case omnirag.RoleUser:
			role = "user"
		case omnirag.RoleModel:
			role = "assistant"
		default:
			continue
		}
		result = append(result, apiMessage{
			Role:    role,
			Content: []apiContentBlock{{Type: "text", Text: m.Content}},
		})
	}
	return result
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
}
