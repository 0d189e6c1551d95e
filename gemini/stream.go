package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/omnirag"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ omnirag.Stream = (*stream)(nil)

type streamState int

const (
	stateOpen streamState = iota
	stateDone
	stateFailed
	stateClosed
)

// stream implements [omnirag.Stream] by wrapping the genai SDK's streaming
// iterator. Each response chunk becomes one fragment.
type stream struct {
	ctx   context.Context
	pull  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	state streamState
	err   error
}

func newStream(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:  ctx,
		pull: next,
		stop: stop,
	}
}

func (s *stream) Next() (omnirag.Fragment, error) {
	switch s.state {
	case stateDone:
		return omnirag.Fragment{}, io.EOF
	case stateFailed:
		return omnirag.Fragment{}, s.err
	case stateClosed:
		return omnirag.Fragment{}, fmt.Errorf("gemini: %w", omnirag.ErrStreamClosed)
	}
	if err := s.ctx.Err(); err != nil {
		return omnirag.Fragment{}, s.fail(err)
	}

	resp, err, ok := s.pull()
	if !ok {
		s.state = stateDone
		return omnirag.Fragment{}, io.EOF
	}
	if err != nil {
		return omnirag.Fragment{}, s.fail(err)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return omnirag.Fragment{}, s.fail(fmt.Errorf("prompt blocked: %s", fb.BlockReason))
	}
	return convertResponse(resp), nil
}

func (s *stream) fail(err error) error {
	s.state = stateFailed
	s.err = fmt.Errorf("gemini: %w", err)
	return s.err
}

func (s *stream) Close() error {
	if s.state == stateOpen {
		s.state = stateClosed
	}
	s.stop()
	return nil
}

// convertResponse maps one response chunk to a fragment. Thought parts are
// dropped; only the first candidate is considered.
func convertResponse(resp *genai.GenerateContentResponse) omnirag.Fragment {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return omnirag.Fragment{}
	}
	cand := resp.Candidates[0]
	var frag omnirag.Fragment
	if cand.Content != nil {
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			b.WriteString(p.Text)
		}
		frag.Text = b.String()
	}
	frag.Grounding = ConvertGrounding(cand.GroundingMetadata)
	return frag
}

// ConvertGrounding maps genai grounding metadata to [omnirag.Grounding].
// Chunks without a web source become citations with a nil Web reference.
// Exported for testing.
func ConvertGrounding(md *genai.GroundingMetadata) *omnirag.Grounding {
	if md == nil {
		return nil
	}
	g := &omnirag.Grounding{Queries: md.WebSearchQueries}
	for _, c := range md.GroundingChunks {
		if c == nil {
			continue
		}
		var cit omnirag.Citation
		if c.Web != nil {
			cit.Web = &omnirag.WebReference{URI: c.Web.URI, Title: c.Web.Title}
		}
		g.Citations = append(g.Citations, cit)
	}
	if md.SearchEntryPoint != nil {
		g.SearchEntryPoint = md.SearchEntryPoint.RenderedContent
	}
	return g
}

// NewStreamFromIter creates a stream from a raw iterator.
// Exported for testing.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) omnirag.Stream {
	return newStream(ctx, seq)
}
