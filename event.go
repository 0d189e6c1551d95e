package omnirag

// Event is a sealed interface representing something that happened in a
// Chat. Events are informational: failures are also reported through the
// error returns of the Chat methods.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventSessionOpened signals that a new session replaced the previous one.
type EventSessionOpened struct {
	Config    SessionConfig
	Documents int
}

func (EventSessionOpened) event() {}

// EventSessionFailed signals that opening a session failed. The previous
// session, if any, stays active.
type EventSessionFailed struct {
	Err error
}

func (EventSessionFailed) event() {}

// EventDocumentsAdded reports the outcome of an upload batch.
type EventDocumentsAdded struct {
	Result AddResult
}

func (EventDocumentsAdded) event() {}

// EventDocumentRemoved signals that a document left the store.
type EventDocumentRemoved struct {
	ID string
}

func (EventDocumentRemoved) event() {}

// EventMessage carries a snapshot of a message that was appended or
// replaced in the log.
type EventMessage struct {
	Message Message
}

func (EventMessage) event() {}

// EventTurnFinished signals the end of a send. Err is nil for completed
// and stopped turns.
type EventTurnFinished struct {
	Message Message
	Stopped bool
	Err     error
}

func (EventTurnFinished) event() {}

// Interface compliance checks.
var (
	_ Event = EventSessionOpened{}
	_ Event = EventSessionFailed{}
	_ Event = EventDocumentsAdded{}
	_ Event = EventDocumentRemoved{}
	_ Event = EventMessage{}
	_ Event = EventTurnFinished{}
)
