// Package goldmark renders model output, which is markdown, for the two
// front-ends: ANSI-styled text for the terminal (styled with lipgloss) and
// sanitized HTML for the web UI. Both use goldmark with the GFM extension.
package goldmark

import (
	"bytes"
	"fmt"

	"github.com/fwojciec/omnirag"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdown is shared by both renderers. Raw HTML in the source is escaped
// because model output is untrusted.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow.
func Render(source string, width int, theme omnirag.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}

// RenderHTML converts markdown source to an HTML fragment.
func RenderHTML(source string) (string, error) {
	if source == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("goldmark: %w", err)
	}
	return buf.String(), nil
}
