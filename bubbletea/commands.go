package bubbletea

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/fs"
	"github.com/fwojciec/omnirag/json"
	"github.com/fwojciec/omnirag/readability"
	"github.com/mattn/go-runewidth"
)

// nameWidth bounds document names in listings.
const nameWidth = 40

var helpLines = []InfoLine{
	{Text: "/add <path or glob>...  add documents to the knowledge base"},
	{Text: "/remove <id or name>    remove a document"},
	{Text: "/docs                   list documents"},
	{Text: "/export <path>          save the transcript as JSON"},
	{Text: "/help                   show this help"},
	{Text: "/quit                   exit"},
}

// runCommand executes a slash command. Commands that touch the session run
// asynchronously and report back with a CommandResultMsg.
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(fields) == 0 {
		return m.notice("empty command (try /help)"), nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "help":
		m = m.appendBlock(NewInfoBlock("Commands", helpLines, m.styles))
		return m.refresh(), nil

	case "docs":
		m = m.appendBlock(NewInfoBlock("Documents", documentLines(m.chat.Documents()), m.styles))
		return m.refresh(), nil

	case "add":
		if len(args) == 0 {
			return m.notice("usage: /add <path or glob>..."), nil
		}
		return m, addDocuments(m.chat, args)

	case "remove":
		if len(args) != 1 {
			return m.notice("usage: /remove <id or name>"), nil
		}
		doc, ok := findDocument(m.chat.Documents(), args[0])
		if !ok {
			return m.notice(fmt.Sprintf("no document %q", args[0])), nil
		}
		return m, removeDocument(m.chat, doc)

	case "export":
		if len(args) != 1 {
			return m.notice("usage: /export <path>"), nil
		}
		if err := json.Save(args[0], m.chat.Transcript()); err != nil {
			return m.notice(err.Error()), nil
		}
		m = m.appendBlock(NewInfoBlock("Export", []InfoLine{{Text: "saved transcript to " + args[0]}}, m.styles))
		return m.refresh(), nil

	case "quit", "exit":
		return m, tea.Quit
	}
	return m.notice(fmt.Sprintf("unknown command /%s (try /help)", name)), nil
}

func (m Model) notice(text string) Model {
	return m.appendBlock(NewNoticeBlock(text, m.styles)).refresh()
}

func addDocuments(chat *omnirag.Chat, patterns []string) tea.Cmd {
	return func() tea.Msg {
		files, err := fs.Collect(patterns...)
		if err != nil {
			return CommandResultMsg{Err: err}
		}
		res, err := chat.AddDocuments(context.Background(), readability.Wrap(files))
		lines := make([]InfoLine, 0, len(res.Added)+len(res.Failed))
		for _, d := range res.Added {
			lines = append(lines, InfoLine{Text: fmt.Sprintf("%s (%d tokens)", d.Name, d.Tokens)})
		}
		for _, f := range res.Failed {
			lines = append(lines, InfoLine{Text: f.Error(), Failed: true})
		}
		return CommandResultMsg{Title: "Added documents", Lines: lines, Err: err}
	}
}

func removeDocument(chat *omnirag.Chat, doc omnirag.Document) tea.Cmd {
	return func() tea.Msg {
		removed, err := chat.RemoveDocument(context.Background(), doc.ID)
		if !removed {
			return CommandResultMsg{Err: fmt.Errorf("no document %q", doc.ID)}
		}
		return CommandResultMsg{
			Title: "Removed document",
			Lines: []InfoLine{{Text: doc.Name}},
			Err:   err,
		}
	}
}

// findDocument matches ref against document IDs first, then names.
func findDocument(docs []omnirag.Document, ref string) (omnirag.Document, bool) {
	for _, d := range docs {
		if d.ID == ref {
			return d, true
		}
	}
	for _, d := range docs {
		if d.Name == ref {
			return d, true
		}
	}
	return omnirag.Document{}, false
}

func documentLines(docs []omnirag.Document) []InfoLine {
	if len(docs) == 0 {
		return []InfoLine{{Text: "no documents"}}
	}
	lines := make([]InfoLine, len(docs))
	for i, d := range docs {
		name := runewidth.FillRight(runewidth.Truncate(d.Name, nameWidth, "…"), nameWidth)
		lines[i] = InfoLine{Text: fmt.Sprintf("%s  %s  %d tokens", d.ID, name, d.Tokens)}
	}
	return lines
}
