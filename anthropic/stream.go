package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/omnirag"
)

type streamState int

const (
	stateOpen streamState = iota
	stateDone
	stateFailed
	stateClosed
)

// stream implements [omnirag.Stream] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	state   streamState
	err     error // terminal error, if any

	blocks    map[int]*blockState
	reply     strings.Builder
	grounding omnirag.Grounding
	seen      map[string]bool
	onDone    func(reply string)
}

// blockState tracks a content block being assembled.
type blockState struct {
	blockType string
	toolName  string
	inputBuf  strings.Builder
}

// Interface compliance check.
var _ omnirag.Stream = (*stream)(nil)

// maxEventLine bounds a single SSE line. Web search result blocks carry
// encrypted page content and routinely exceed bufio's 64 KiB default.
const maxEventLine = 8 << 20

func newStream(ctx context.Context, body io.ReadCloser, onDone func(reply string)) *stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	return &stream{
		body:    body,
		scanner: scanner,
		ctx:     ctx,
		blocks:  make(map[int]*blockState),
		seen:    make(map[string]bool),
		onDone:  onDone,
	}
}

// Next reads SSE events until one produces a fragment.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (omnirag.Fragment, error) {
	switch s.state {
	case stateDone:
		return omnirag.Fragment{}, io.EOF
	case stateFailed:
		return omnirag.Fragment{}, s.err
	case stateClosed:
		return omnirag.Fragment{}, fmt.Errorf("anthropic: %w", omnirag.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return omnirag.Fragment{}, s.err
		}

		frag, ok, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return omnirag.Fragment{}, s.err
		}

		// processEvent may complete the stream (message_stop).
		if s.state == stateDone {
			if s.onDone != nil {
				s.onDone(s.reply.String())
			}
			return omnirag.Fragment{}, io.EOF
		}
		if ok {
			return frag, nil
		}
		// Non-semantic event (ping, message_start, ...) - keep reading.
	}
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state == stateOpen {
		s.state = stateClosed
	}
	return s.body.Close()
}

func (s *stream) terminate(err error) {
	s.state = stateFailed
	if errors.Is(err, io.EOF) {
		// message_stop completes the stream before the body ends.
		s.err = fmt.Errorf("anthropic: unexpected end of stream")
		return
	}
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.err = fmt.Errorf("anthropic: %w", ctxErr)
		return
	}
	s.err = err
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Comments (lines starting with ':') and unknown fields are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a fragment. ok is false for events
// that carry nothing for the caller.
func (s *stream) processEvent(eventType, data string) (frag omnirag.Fragment, ok bool, err error) {
	switch eventType {
	case "content_block_start":
		return omnirag.Fragment{}, false, s.handleContentBlockStart(data)
	case "content_block_delta":
		return s.handleContentBlockDelta(data)
	case "content_block_stop":
		return s.handleContentBlockStop(data)
	case "message_stop":
		s.state = stateDone
		return omnirag.Fragment{}, false, nil
	case "error":
		return omnirag.Fragment{}, false, s.handleError(data)
	default:
		// message_start, message_delta, ping and unknown events.
		return omnirag.Fragment{}, false, nil
	}
}

func (s *stream) handleContentBlockStart(data string) error {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse content_block_start: %w", err)
	}
	s.blocks[evt.Index] = &blockState{
		blockType: evt.ContentBlock.Type,
		toolName:  evt.ContentBlock.Name,
	}
	return nil
}

func (s *stream) handleContentBlockDelta(data string) (omnirag.Fragment, bool, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return omnirag.Fragment{}, false, fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
	}
	bs := s.blocks[evt.Index]
	if bs == nil {
		return omnirag.Fragment{}, false, fmt.Errorf("anthropic: delta for unknown block index %d", evt.Index)
	}

	switch evt.Delta.Type {
	case "text_delta":
		s.reply.WriteString(evt.Delta.Text)
		return omnirag.Fragment{Text: evt.Delta.Text}, true, nil
	case "citations_delta":
		if !s.addCitation(evt.Delta.Citation) {
			return omnirag.Fragment{}, false, nil
		}
		return omnirag.Fragment{Grounding: s.grounding.Clone()}, true, nil
	case "input_json_delta":
		bs.inputBuf.WriteString(evt.Delta.PartialJSON)
		return omnirag.Fragment{}, false, nil
	default:
		return omnirag.Fragment{}, false, nil
	}
}

// addCitation records a web citation, deduplicated by URL. It reports
// whether the citation set grew.
func (s *stream) addCitation(c *sseCitation) bool {
	if c == nil || c.URL == "" || s.seen[c.URL] {
		return false
	}
	s.seen[c.URL] = true
	s.grounding.Citations = append(s.grounding.Citations, omnirag.Citation{
		Web: &omnirag.WebReference{URI: c.URL, Title: c.Title},
	})
	return true
}

// handleContentBlockStop records the query of a finished web_search call.
// Queries surface with the next citation set.
func (s *stream) handleContentBlockStop(data string) (omnirag.Fragment, bool, error) {
	var evt sseContentBlockStop
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return omnirag.Fragment{}, false, fmt.Errorf("anthropic: failed to parse content_block_stop: %w", err)
	}
	bs := s.blocks[evt.Index]
	if bs == nil {
		return omnirag.Fragment{}, false, fmt.Errorf("anthropic: stop for unknown block index %d", evt.Index)
	}
	if bs.blockType == "server_tool_use" && bs.toolName == "web_search" {
		var in searchInput
		if err := json.Unmarshal([]byte(bs.inputBuf.String()), &in); err == nil && in.Query != "" {
			s.grounding.Queries = append(s.grounding.Queries, in.Query)
		}
	}
	return omnirag.Fragment{}, false, nil
}

func (s *stream) handleError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse error event: %w", err)
	}
	return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
}
