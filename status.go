package omnirag

import "fmt"

// Status is the chat's activity state as shown by renderers.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"   // send issued, no text yet
	StatusStreaming Status = "streaming" // text is arriving
	StatusError     Status = "error"     // last operation failed; input stays enabled
)

// Busy reports whether the input affordance must be disabled.
func (s Status) Busy() bool {
	return s == StatusLoading || s == StatusStreaming
}

// HistoryPolicy decides what happens to the model-side conversation when a
// changed document set forces a new session.
type HistoryPolicy string

const (
	// HistorySoftReset starts the new session empty. The visible
	// transcript is kept, so early turns may no longer be in the model's
	// context.
	HistorySoftReset HistoryPolicy = "soft-reset"
	// HistoryReplay seeds the new session with the completed turns of the
	// visible transcript.
	HistoryReplay HistoryPolicy = "replay"
)

// ParseHistoryPolicy parses a policy name. The empty string selects
// HistorySoftReset.
func ParseHistoryPolicy(s string) (HistoryPolicy, error) {
	switch HistoryPolicy(s) {
	case "", HistorySoftReset:
		return HistorySoftReset, nil
	case HistoryReplay:
		return HistoryReplay, nil
	default:
		return "", fmt.Errorf("unknown history policy %q: %w", s, ErrValidation)
	}
}
