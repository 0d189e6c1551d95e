package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/goldmark"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders a model reply with markdown formatting.
// Completed paragraphs (ending at a blank line) are rendered once per width
// and cached; only the trailing paragraph is re-rendered on each snapshot.
type AssistantBlock struct {
	content   string
	streaming bool
	theme     omnirag.Theme
	styles    Styles

	stableRaw     string
	stableByWidth map[int]string
}

// NewAssistantBlock creates an empty, pending reply block.
func NewAssistantBlock(theme omnirag.Theme, styles Styles) *AssistantBlock {
	return &AssistantBlock{
		streaming:     true,
		theme:         theme,
		styles:        styles,
		stableByWidth: make(map[int]string),
	}
}

// SetMessage replaces the block content with a message snapshot.
func (b *AssistantBlock) SetMessage(m omnirag.Message) {
	if !strings.HasPrefix(m.Content, b.content) {
		b.stableRaw = ""
		clear(b.stableByWidth)
	}
	b.content = m.Content
	b.streaming = m.Streaming
	b.promoteStable()
}

// Content returns the accumulated reply text.
func (b *AssistantBlock) Content() string { return b.content }

// Streaming reports whether the reply is still arriving.
func (b *AssistantBlock) Streaming() bool { return b.streaming }

func (b *AssistantBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantBlock) View(width int) string {
	if b.content == "" {
		if b.streaming {
			return b.styles.Muted.Render("● thinking…")
		}
		return b.styles.Muted.Render("(no answer)")
	}
	stable := b.renderStable(width)
	trailing := b.trailingRaw()
	if hasUnclosedFence(trailing) {
		trailing += "\n```"
	}
	var rendered string
	if trailing != "" {
		rendered = goldmark.Render(trailing, width, b.theme)
	}
	switch {
	case strings.TrimSpace(rendered) == "":
		rendered = stable
	case stable != "":
		rendered = strings.TrimRight(stable, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
	}
	if b.streaming {
		rendered = strings.TrimRight(rendered, "\n") + b.styles.Muted.Render(" ▍")
	}
	return rendered
}

// promoteStable moves the stable prefix to the last blank line that is not
// inside an open code fence.
func (b *AssistantBlock) promoteStable() {
	raw := b.content
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.stableRaw {
				b.stableRaw = candidate
				clear(b.stableByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantBlock) renderStable(width int) string {
	if width <= 0 || b.stableRaw == "" {
		return ""
	}
	if cached, ok := b.stableByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.stableRaw, width, b.theme)
	b.stableByWidth[width] = rendered
	return rendered
}

func (b *AssistantBlock) trailingRaw() string {
	if b.stableRaw == "" {
		return b.content
	}
	return strings.TrimPrefix(b.content, b.stableRaw+"\n\n")
}

// hasUnclosedFence counts triple backticks. Inline code spans containing
// a literal fence are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
