package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/omnirag"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ omnirag.Provider = (*Client)(nil)
	_ omnirag.Session  = (*session)(nil)
)

// Client implements [omnirag.Provider] for the Google Gemini API. It is
// constructed once at startup and read-only thereafter.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", omnirag.ErrValidation)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the model ID sessions are opened with.
func (c *Client) Model() string { return c.model }

// NewSession opens a chat seeded with cfg.History. No request is made
// until the first Send.
func (c *Client) NewSession(ctx context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	chat, err := c.client.Chats.Create(ctx, c.model, BuildConfig(cfg), ConvertHistory(cfg.History))
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &session{chat: chat, cfg: cfg}, nil
}

type session struct {
	chat *genai.Chat
	cfg  omnirag.SessionConfig
}

func (s *session) Config() omnirag.SessionConfig { return s.cfg }

// Send streams the reply to text. The chat records the turn in its history
// once the stream has been fully consumed.
func (s *session) Send(ctx context.Context, text string) (omnirag.Stream, error) {
	return newStream(ctx, s.chat.SendMessageStream(ctx, genai.Part{Text: text})), nil
}

// BuildConfig converts session parameters to a genai generation config.
// Exported for testing.
func BuildConfig(cfg omnirag.SessionConfig) *genai.GenerateContentConfig {
	temp := float32(cfg.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(cfg.MaxOutputTokens),
	}
	if cfg.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: cfg.SystemPrompt}},
		}
	}
	if cfg.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return config
}

// ConvertHistory converts prior turns to genai Contents. Messages with
// other roles are skipped. Exported for testing.
func ConvertHistory(msgs []omnirag.Message) []*genai.Content {
	var result []*genai.Content
	for _, m := range msgs {
		var role string
		switch m.Role {
		case omnirag.RoleUser:
			role = genai.RoleUser
		case omnirag.RoleModel:
			role = genai.RoleModel
		default:
			continue
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return result
}
