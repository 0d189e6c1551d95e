package goldmark_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Force ANSI color output so styled elements produce visible escape
	// codes that tests can assert against.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := omnirag.DefaultTheme()

	t.Run("empty input returns empty string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", goldmark.Render("", 80, theme))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Paris is the capital.", strings.TrimSpace(stripANSI(goldmark.Render("Paris is the capital.", 80, theme))))
	})

	t.Run("heading is styled", func(t *testing.T) {
		t.Parallel()
		heading := goldmark.Render("# Answer", 80, theme)
		paragraph := goldmark.Render("Answer", 80, theme)
		assert.Contains(t, stripANSI(heading), "Answer")
		assert.NotEqual(t, heading, paragraph)
	})

	t.Run("emphasis", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(goldmark.Render("**bold** and *italic* and ~~gone~~", 80, theme))
		assert.Contains(t, result, "bold and italic and gone")
	})

	t.Run("fenced code block is not reflowed", func(t *testing.T) {
		t.Parallel()
		src := "```go\nfmt.Println(\"hello world\")\n```"
		result := stripANSI(goldmark.Render(src, 20, theme))
		assert.Contains(t, result, "go")
		assert.Contains(t, result, `fmt.Println("hello world")`)
	})

	t.Run("indented code block", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(goldmark.Render("paragraph\n\n    indented code\n    more code", 80, theme))
		assert.Contains(t, result, "│ indented code")
		assert.Contains(t, result, "│ more code")
	})

	t.Run("lists", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(goldmark.Render("- one\n- two\n  - nested\n\n3. three\n4. four", 80, theme))
		assert.Contains(t, result, "- one")
		assert.Contains(t, result, "  - nested")
		assert.Contains(t, result, "3. three")
		assert.Contains(t, result, "4. four")
	})

	t.Run("list item continuation lines are indented", func(t *testing.T) {
		t.Parallel()
		src := "- this is a very long list item that should wrap and have continuation lines properly indented"
		lines := strings.Split(stripANSI(goldmark.Render(src, 30, theme)), "\n")
		require.Greater(t, len(lines), 1)
		assert.True(t, strings.HasPrefix(lines[0], "- "))
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				assert.True(t, strings.HasPrefix(line, "  "), "continuation line should be indented: %q", line)
			}
		}
	})

	t.Run("link shows label and URL", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(goldmark.Render("[Example](https://example.com)", 80, theme))
		assert.Contains(t, result, "Example (https://example.com)")
	})

	t.Run("bare URL is linkified once", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(goldmark.Render("see https://example.com/page", 80, theme))
		assert.Equal(t, 1, strings.Count(result, "https://example.com/page"))
	})

	t.Run("blockquote has a gutter", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(goldmark.Render("> quoted text", 80, theme))
		assert.Contains(t, result, "▎ quoted text")
	})

	t.Run("table rows", func(t *testing.T) {
		t.Parallel()
		src := "| City | Country |\n|---|---|\n| Paris | France |"
		result := stripANSI(goldmark.Render(src, 80, theme))
		assert.Contains(t, result, "City │ Country")
		assert.Contains(t, result, "Paris │ France")
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		long := "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12"
		result := goldmark.Render(long, 30, theme)
		assert.Contains(t, stripANSI(result), "word12")
		assert.Greater(t, len(strings.Split(result, "\n")), 1)
	})

	t.Run("paragraphs are separated by a blank line", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(goldmark.Render("first\n\nsecond", 80, theme))
		lines := strings.Split(result, "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "", strings.TrimSpace(lines[1]))
	})

	t.Run("width zero defaults to 80", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, stripANSI(goldmark.Render("hello world", 0, theme)), "hello world")
	})
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		got, err := goldmark.RenderHTML("")
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})

	t.Run("markdown to html", func(t *testing.T) {
		t.Parallel()
		got, err := goldmark.RenderHTML("**Paris** is the capital.\n\n- [Example](https://example.com)")
		require.NoError(t, err)
		assert.Contains(t, got, "<strong>Paris</strong>")
		assert.Contains(t, got, `<a href="https://example.com">Example</a>`)
		assert.Contains(t, got, "<li>")
	})

	t.Run("raw html is not passed through", func(t *testing.T) {
		t.Parallel()
		got, err := goldmark.RenderHTML("<script>alert(1)</script>\n\nok")
		require.NoError(t, err)
		assert.NotContains(t, got, "<script>")
		assert.Contains(t, got, "<p>ok</p>")
	})

	t.Run("tables", func(t *testing.T) {
		t.Parallel()
		got, err := goldmark.RenderHTML("| a | b |\n|---|---|\n| 1 | 2 |")
		require.NoError(t, err)
		assert.Contains(t, got, "<table>")
	})
}
