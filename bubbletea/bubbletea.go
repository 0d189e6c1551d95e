// Package bubbletea provides the terminal interface: a Bubble Tea program
// that shows the conversation, the knowledge base, and slash commands for
// managing documents.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/omnirag"
)

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// MessageUpdateMsg carries a message snapshot from the running send.
type MessageUpdateMsg struct {
	Message omnirag.Message
}

// SendDoneMsg signals that the send has returned.
type SendDoneMsg struct {
	Err error
}

// CommandResultMsg carries the outcome of an asynchronous slash command.
type CommandResultMsg struct {
	Title string
	Lines []InfoLine
	Err   error
}
