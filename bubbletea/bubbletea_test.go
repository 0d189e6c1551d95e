package bubbletea_test

import (
	"context"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/omnirag"
	bt "github.com/fwojciec/omnirag/bubbletea"
	"github.com/fwojciec/omnirag/mock"
	"github.com/stretchr/testify/require"
)

// replyProvider answers every send with the stream returned by reply.
func replyProvider(reply func(ctx context.Context) omnirag.Stream) *mock.Provider {
	return &mock.Provider{NewSessionFn: func(_ context.Context, cfg omnirag.SessionConfig) (omnirag.Session, error) {
		return &mock.Session{Cfg: cfg, SendFn: func(ctx context.Context, _ string) (omnirag.Stream, error) {
			return reply(ctx), nil
		}}, nil
	}}
}

func textReply(frags ...omnirag.Fragment) func(context.Context) omnirag.Stream {
	return func(context.Context) omnirag.Stream { return mock.Fragments(nil, frags...) }
}

// blockingReply yields "partial" and then waits for cancellation.
func blockingReply() func(context.Context) omnirag.Stream {
	return func(ctx context.Context) omnirag.Stream {
		sent := false
		return &mock.Stream{NextFn: func() (omnirag.Fragment, error) {
			if !sent {
				sent = true
				return omnirag.Fragment{Text: "partial"}, nil
			}
			<-ctx.Done()
			return omnirag.Fragment{}, io.EOF
		}}
	}
}

// newChat creates a chat with an open session.
func newChat(t *testing.T, reply func(context.Context) omnirag.Stream) *omnirag.Chat {
	t.Helper()
	chat := omnirag.NewChat(replyProvider(reply))
	require.NoError(t, chat.Open(context.Background()))
	return chat
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, chat *omnirag.Chat) bt.Model {
	t.Helper()
	return initModelWithSize(t, chat, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, chat *omnirag.Chat, width, height int) bt.Model {
	t.Helper()
	m := bt.New(chat, omnirag.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// submit types text into the input and presses enter.
func submit(t *testing.T, m bt.Model, text string) (bt.Model, tea.Cmd) {
	t.Helper()
	m.Input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model, cmd
}

func modelMsg(id, content string, streaming bool) bt.MessageUpdateMsg {
	return bt.MessageUpdateMsg{Message: omnirag.Message{
		ID:        id,
		Role:      omnirag.RoleModel,
		Content:   content,
		Streaming: streaming,
	}}
}
