package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*InfoBlock)(nil)

// InfoLine is one line of command output.
type InfoLine struct {
	Text   string
	Failed bool
}

// InfoBlock renders the output of a slash command: a title and lines
// marked as succeeded or failed.
type InfoBlock struct {
	title  string
	lines  []InfoLine
	styles Styles
}

// NewInfoBlock creates an InfoBlock.
func NewInfoBlock(title string, lines []InfoLine, styles Styles) *InfoBlock {
	return &InfoBlock{title: title, lines: lines, styles: styles}
}

func (b *InfoBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *InfoBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(max(width, 1))
	out := []string{b.styles.Accent.Render(b.title)}
	for _, l := range b.lines {
		icon := b.styles.Success.Render("✓")
		if l.Failed {
			icon = b.styles.Error.Render("✗")
		}
		out = append(out, wrap.Render("  "+icon+" "+l.Text))
	}
	return strings.Join(out, "\n")
}
