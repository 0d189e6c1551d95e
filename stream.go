package omnirag

// Fragment is one incremental unit of a streamed response: a text delta
// plus, optionally, the grounding known at that point.
type Fragment struct {
	Text      string
	Grounding *Grounding
}

// Stream uses a pull-based iterator pattern. Next returns fragments in
// arrival order and io.EOF after the last one. Any other error is terminal.
// Cancellation flows through the context passed to Session.Send.
// Streams are one-shot and not restartable.
type Stream interface {
	Next() (Fragment, error)
	Close() error
}
