package omnirag

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// SendFunc opens the response stream for one turn.
type SendFunc func(ctx context.Context) (Stream, error)

// Aggregator folds a response stream into a single model message in a
// MessageLog, republishing a consistent snapshot after every fragment.
type Aggregator struct {
	log   *MessageLog
	newID func() string
	now   func() time.Time
}

// NewAggregator creates an Aggregator writing to log.
func NewAggregator(log *MessageLog, newID func() string, now func() time.Time) *Aggregator {
	if newID == nil {
		newID = sequentialIDs("msg")
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{log: log, newID: newID, now: now}
}

// Run executes one model turn:
//
//  1. A pending model message (empty, streaming) is appended before the
//     stream is opened, so renderers can show a pending indicator.
//  2. Each fragment's text is appended to the accumulated content and its
//     grounding merged last-non-empty-wins; the message is replaced in the
//     log as a whole.
//  3. At io.EOF the streaming flag is cleared.
//  4. On failure the partial content is kept, the streaming flag is
//     cleared, and a separate failure notice is appended. The error is
//     returned.
//
// Cancelling ctx finalizes the message like a normal completion: partial
// content, streaming cleared, no failure notice, nil error.
//
// onUpdate, when non-nil, receives a copy of every message the turn
// appends or replaces, in order.
func (a *Aggregator) Run(ctx context.Context, send SendFunc, onUpdate func(Message)) (Message, error) {
	notify := func(m Message) {
		if onUpdate != nil {
			onUpdate(m.Clone())
		}
	}

	msg := Message{
		ID:        a.newID(),
		Role:      RoleModel,
		Timestamp: a.now(),
		Streaming: true,
	}
	if err := a.log.Append(msg); err != nil {
		return Message{}, err
	}
	notify(msg)

	stream, err := send(ctx)
	if err != nil {
		return a.finish(ctx, msg, err, notify)
	}
	defer stream.Close()

	var content strings.Builder
	for {
		frag, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return a.finish(ctx, msg, nil, notify)
		}
		if err != nil {
			return a.finish(ctx, msg, err, notify)
		}
		content.WriteString(frag.Text)
		msg.Content = content.String()
		msg.Grounding = MergeGrounding(msg.Grounding, frag.Grounding)
		if err := a.log.Replace(msg); err != nil {
			return msg, err
		}
		notify(msg)
	}
}

// finish performs the single streaming true → false transition and, for
// failures other than cancellation, appends the failure notice.
func (a *Aggregator) finish(ctx context.Context, msg Message, cause error, notify func(Message)) (Message, error) {
	msg.Streaming = false
	if err := a.log.Replace(msg); err != nil {
		return msg, errors.Join(cause, err)
	}
	notify(msg)

	if cause == nil || ctx.Err() != nil {
		return msg, nil
	}

	notice := Message{
		ID:        a.newID(),
		Role:      RoleModel,
		Content:   FailureNotice,
		Timestamp: a.now(),
		Failed:    true,
	}
	if err := a.log.Append(notice); err != nil {
		return msg, errors.Join(cause, err)
	}
	notify(notice)
	return msg, cause
}
