package omnirag

import "time"

// Transcript is an export of a conversation: the visible message log
// together with the documents and system prompt of the active session.
type Transcript struct {
	SystemPrompt string
	Documents    []Document
	Messages     []Message
	ExportedAt   time.Time
}

// Transcript captures the current conversation.
func (c *Chat) Transcript() Transcript {
	var prompt string
	if s := c.Session(); s != nil {
		prompt = s.Config().SystemPrompt
	}
	return Transcript{
		SystemPrompt: prompt,
		Documents:    c.docs.Documents(),
		Messages:     c.log.Messages(),
		ExportedAt:   c.now(),
	}
}
