package omnirag

import (
	"fmt"
	"sync"
)

// MessageLog is the ordered conversation transcript. Messages are never
// removed or reordered. At most one message is streaming at any time.
// It is safe for concurrent use.
type MessageLog struct {
	mu    sync.RWMutex
	msgs  []Message
	index map[string]int
}

// NewMessageLog creates an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{index: make(map[string]int)}
}

// Append adds m to the end of the log. Appending a streaming message while
// another message is streaming returns ErrBusy.
func (l *MessageLog) Append(m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.ID == "" {
		return fmt.Errorf("message ID is required: %w", ErrValidation)
	}
	if _, ok := l.index[m.ID]; ok {
		return fmt.Errorf("duplicate message ID %q: %w", m.ID, ErrValidation)
	}
	if m.Streaming && l.streamingLocked() >= 0 {
		return ErrBusy
	}
	l.index[m.ID] = len(l.msgs)
	l.msgs = append(l.msgs, m.Clone())
	return nil
}

// Replace swaps the stored message having m.ID for m in one step, so
// readers never observe content and grounding from different snapshots.
// Only streaming messages can be replaced, and a message cannot start
// streaming again.
func (l *MessageLog) Replace(m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[m.ID]
	if !ok {
		return fmt.Errorf("%q: %w", m.ID, ErrMessageNotFound)
	}
	if !l.msgs[i].Streaming {
		return fmt.Errorf("%q: %w", m.ID, ErrMessageFrozen)
	}
	l.msgs[i] = m.Clone()
	return nil
}

// Get returns the message with the given ID.
func (l *MessageLog) Get(id string) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return Message{}, false
	}
	return l.msgs[i].Clone(), true
}

// Messages returns a deep copy of the log in creation order.
func (l *MessageLog) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.msgs))
	for i, m := range l.msgs {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of messages.
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.msgs)
}

// Streaming reports whether any message is still streaming.
func (l *MessageLog) Streaming() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.streamingLocked() >= 0
}

// streamingLocked returns the index of the streaming message, or -1.
// Only the most recent model message can be streaming, so the scan walks
// backwards.
func (l *MessageLog) streamingLocked() int {
	for i := len(l.msgs) - 1; i >= 0; i-- {
		if l.msgs[i].Streaming {
			return i
		}
	}
	return -1
}

// Turns returns the completed user and model messages suitable for seeding
// a new session: failed notices and empty or streaming messages are skipped.
func (l *MessageLog) Turns() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Message
	for _, m := range l.msgs {
		if m.Streaming || m.Failed || m.Content == "" {
			continue
		}
		if m.Role != RoleUser && m.Role != RoleModel {
			continue
		}
		out = append(out, m.Clone())
	}
	return out
}
