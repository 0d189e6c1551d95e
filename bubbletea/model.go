package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/omnirag"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the terminal interface.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model

	chat   *omnirag.Chat
	theme  omnirag.Theme
	styles Styles

	blocks     []MessageBlock
	byID       map[string]int           // message ID to block index
	sources    map[string]*SourcesBlock // message ID to its sources block
	blockFocus int                      // index of focused sources block (-1 = none)

	running bool
	cancel  context.CancelFunc
	updates chan omnirag.Message
	doneCh  chan error
	err     error
	ready   bool
	width   int
}

// New creates a Model for chat. Messages already in the chat are shown
// once the terminal size is known.
func New(chat *omnirag.Chat, theme omnirag.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your documents, or /help"
	ti.Prompt = "› "
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:      ti,
		chat:       chat,
		theme:      theme,
		styles:     NewStyles(theme),
		byID:       make(map[string]int),
		sources:    make(map[string]*SourcesBlock),
		blockFocus: -1,
	}
}

// Running reports whether a send is in flight.
func (m Model) Running() bool { return m.running }

// Err returns the error of the last send, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MessageUpdateMsg:
		m = m.applyMessage(msg.Message)
		m = m.refresh()
		if m.updates != nil {
			return m, listenForUpdate(m.updates, m.doneCh)
		}
		return m, nil

	case SendDoneMsg:
		m.running = false
		if m.cancel != nil {
			m.cancel()
		}
		m.cancel = nil
		m.updates = nil
		m.doneCh = nil
		m.err = msg.Err
		if errors.Is(msg.Err, omnirag.ErrNoSession) {
			m = m.appendBlock(NewNoticeBlock("No session is open. Check your API key and add a document to retry.", m.styles))
		}
		m = m.updateBlockFocus().refresh()
		cmd := m.Input.Focus()
		return m, cmd

	case CommandResultMsg:
		if len(msg.Lines) > 0 {
			m = m.appendBlock(NewInfoBlock(msg.Title, msg.Lines, m.styles))
		}
		if msg.Err != nil {
			m = m.appendBlock(NewNoticeBlock(msg.Err.Error(), m.styles))
		}
		return m.refresh(), nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.documentsLine())
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// Documents line, status line and input take one row each.
	vpHeight := max(msg.Height-3, 1)
	m.width = msg.Width

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		for _, existing := range m.chat.Messages() {
			m = m.applyMessage(existing)
		}
		m = m.updateBlockFocus()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = max(msg.Width-3, 1)
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			m.chat.Stop()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		m.Input.SetValue("")
		if strings.HasPrefix(text, "/") {
			return m.runCommand(text)
		}
		return m.submit(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
		}
		return m, nil
	}

	// Character keys go only to the input so that letters used for
	// viewport scrolling can still be typed.
	if !m.running {
		var cmds []tea.Cmd
		var cmd tea.Cmd
		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.err = nil
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.updates = make(chan omnirag.Message, 256)
	m.doneCh = make(chan error, 1)
	m.running = true
	m.Input.Blur()

	return m, tea.Batch(
		startSend(ctx, m.chat, text, m.updates, m.doneCh),
		listenForUpdate(m.updates, m.doneCh),
	)
}

// applyMessage creates or updates the block for a message snapshot.
func (m Model) applyMessage(msg omnirag.Message) Model {
	if idx, ok := m.byID[msg.ID]; ok {
		if b, ok := m.blocks[idx].(*AssistantBlock); ok {
			b.SetMessage(msg)
			m = m.applyGrounding(msg, idx)
		}
		return m
	}

	switch {
	case msg.Role == omnirag.RoleUser:
		m = m.appendBlock(NewUserMessageBlock(msg.Content, m.styles))
	case msg.Failed:
		m = m.appendBlock(NewNoticeBlock(msg.Content, m.styles))
	default:
		b := NewAssistantBlock(m.theme, m.styles)
		b.SetMessage(msg)
		m = m.appendBlock(b)
	}
	idx := len(m.blocks) - 1
	m.byID[msg.ID] = idx
	return m.applyGrounding(msg, idx)
}

// applyGrounding shows the message's sources directly below its block.
func (m Model) applyGrounding(msg omnirag.Message, idx int) Model {
	if msg.Grounding.Empty() {
		return m
	}
	if sb, ok := m.sources[msg.ID]; ok {
		sb.SetGrounding(msg.Grounding)
		return m
	}
	sb := NewSourcesBlock(m.styles)
	sb.SetGrounding(msg.Grounding)
	m.blocks = slices.Insert(m.blocks, idx+1, MessageBlock(sb))
	for id, i := range m.byID {
		if i > idx {
			m.byID[id] = i + 1
		}
	}
	m.sources[msg.ID] = sb
	return m.updateBlockFocus()
}

func (m Model) appendBlock(b MessageBlock) Model {
	m.blocks = append(m.blocks, b)
	return m
}

func (m Model) refresh() Model {
	if !m.ready && m.Viewport.Width == 0 {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString(blockSeparator(m.blocks[i-1], block))
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// blockSeparator keeps sources attached to the reply above them and puts
// a blank line between everything else.
func blockSeparator(prev, curr MessageBlock) string {
	if _, ok := curr.(*SourcesBlock); ok {
		return "\n"
	}
	return "\n\n"
}

// updateBlockFocus focuses the last sources block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*SourcesBlock); ok {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves focus to the previous sources block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	n := len(m.blocks)
	start := m.blockFocus - 1
	if start < 0 {
		start = n - 1
	}
	for i := range n {
		idx := (start - i + n) % n
		if _, ok := m.blocks[idx].(*SourcesBlock); ok {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

// documentsLine summarizes the knowledge base in one row.
func (m Model) documentsLine() string {
	docs := m.chat.Documents()
	if len(docs) == 0 {
		return m.styles.Muted.Render(runewidth.Truncate("No documents. Add some with /add <path or glob>", m.width, "…"))
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	line := fmt.Sprintf("Knowledge base: %s", strings.Join(names, ", "))
	return m.styles.Document.Render(runewidth.Truncate(line, m.width, "…"))
}

// statusLine shows the activity state on the left and document totals
// right-aligned.
func (m Model) statusLine() string {
	var text string
	style := m.styles.Muted
	switch {
	case m.running && m.chat.Status() == omnirag.StatusStreaming:
		text = "Streaming… Ctrl+C to stop"
	case m.running:
		text = "Waiting for response… Ctrl+C to stop"
	case m.err != nil:
		text = runewidth.Truncate(fmt.Sprintf("Error: %v", m.err), max(m.width-24, 10), "…")
		style = m.styles.Error
	default:
		text = "Enter to send, Tab toggles sources, Ctrl+C to quit"
	}
	right := fmt.Sprintf("%d docs · %d tokens", m.chat.Store().Len(), m.chat.TotalTokens())
	gap := m.width - uniseg.StringWidth(text) - uniseg.StringWidth(right)
	if gap < 1 {
		return style.Render(text)
	}
	return style.Render(text) + strings.Repeat(" ", gap) + m.styles.Muted.Render(right)
}

// startSend runs the send in the command goroutine and forwards every
// snapshot to updates.
func startSend(ctx context.Context, chat *omnirag.Chat, text string, updates chan<- omnirag.Message, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		_, err := chat.Send(ctx, text, omnirag.WithUpdateHandler(func(msg omnirag.Message) {
			select {
			case updates <- msg:
			case <-ctx.Done():
			}
		}))
		close(updates)
		doneCh <- err
		return nil
	}
}

// listenForUpdate waits for the next snapshot. When the channel closes, it
// reads the send result from doneCh.
func listenForUpdate(ch <-chan omnirag.Message, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return SendDoneMsg{Err: <-doneCh}
		}
		return MessageUpdateMsg{Message: msg}
	}
}
