package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/omnirag"
)

var _ MessageBlock = (*SourcesBlock)(nil)

// SourcesBlock lists the web sources and search queries behind a reply.
// It starts expanded and collapses to a one-line summary.
type SourcesBlock struct {
	grounding omnirag.Grounding
	collapsed bool
	styles    Styles
}

// NewSourcesBlock creates a SourcesBlock.
func NewSourcesBlock(styles Styles) *SourcesBlock {
	return &SourcesBlock{styles: styles}
}

// SetGrounding replaces the listed grounding.
func (b *SourcesBlock) SetGrounding(g *omnirag.Grounding) {
	if g == nil {
		b.grounding = omnirag.Grounding{}
		return
	}
	b.grounding = *g.Clone()
}

// Collapsed reports whether only the summary line is shown.
func (b *SourcesBlock) Collapsed() bool { return b.collapsed }

func (b *SourcesBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *SourcesBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(max(width, 1))
	web := b.webCitations()

	indicator := "▼"
	if b.collapsed {
		indicator = "▶"
	}
	header := b.styles.Citation.Render(fmt.Sprintf("%s Sources (%d)", indicator, len(web)))
	if b.collapsed {
		return header
	}

	lines := []string{header}
	for i, ref := range web {
		label := ref.Title
		if label == "" || label == ref.URI {
			label = ref.URI
		} else {
			label += " " + b.styles.Muted.Render(ref.URI)
		}
		lines = append(lines, wrap.Render(fmt.Sprintf("  %d. %s", i+1, label)))
	}
	if len(b.grounding.Queries) > 0 {
		lines = append(lines, wrap.Render(b.styles.Muted.Render("  searched: "+strings.Join(b.grounding.Queries, "; "))))
	}
	return strings.Join(lines, "\n")
}

func (b *SourcesBlock) webCitations() []omnirag.WebReference {
	var refs []omnirag.WebReference
	for _, c := range b.grounding.Citations {
		if c.Web != nil && c.Web.URI != "" {
			refs = append(refs, *c.Web)
		}
	}
	return refs
}
