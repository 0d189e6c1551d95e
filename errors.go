package omnirag

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a session configuration or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrBusy indicates a send was attempted while a turn is still streaming.
	ErrBusy = errors.New("a response is still streaming")

	// ErrNoSession indicates a send was attempted before any session was opened.
	ErrNoSession = errors.New("no conversation session")

	// ErrEmptyMessage indicates the submitted text was empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrMessageNotFound indicates a message ID is not present in the log.
	ErrMessageNotFound = errors.New("message not found")

	// ErrMessageFrozen indicates an attempt to replace a message whose
	// streaming phase has already ended.
	ErrMessageFrozen = errors.New("message is no longer streaming")

	// ErrUnsupportedContent indicates a file is not readable as text.
	ErrUnsupportedContent = errors.New("unsupported content: not UTF-8 text")

	// ErrFileTooLarge indicates a file exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("file too large")
)
