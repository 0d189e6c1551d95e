package omnirag

import (
	"slices"
	"time"
)

// FailureNotice is the content of the message appended when a turn fails.
const FailureNotice = "Sorry, I encountered an error while processing your request. Please check your API key and try again."

// Message is one entry of the conversation log.
//
// Content is append-only while Streaming is true and frozen afterwards.
// Streaming transitions from true to false exactly once.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Streaming bool
	Grounding *Grounding
	// Failed marks the generic notice appended after a failed turn.
	Failed bool
}

// Clone returns a deep copy of m, safe to hand to another goroutine.
func (m Message) Clone() Message {
	m.Grounding = m.Grounding.Clone()
	return m
}

// Citations returns the message's citations, or nil when it has none.
func (m Message) Citations() []Citation {
	if m.Grounding == nil {
		return nil
	}
	return m.Grounding.Citations
}

// Grounding is the search metadata attached to a model message.
type Grounding struct {
	Citations []Citation
	// Queries are the web search queries the model issued.
	Queries []string
	// SearchEntryPoint is an HTML snippet the remote service asks clients
	// to display alongside grounded answers. May be empty.
	SearchEntryPoint string
}

// Citation is one grounding entry. Web is nil for non-web sources.
type Citation struct {
	Web *WebReference
}

// WebReference identifies a web page used to ground an answer.
type WebReference struct {
	URI   string
	Title string
}

// Empty reports whether g carries no citations. A nil Grounding is empty.
func (g *Grounding) Empty() bool {
	return g == nil || len(g.Citations) == 0
}

// Clone returns a deep copy of g. Cloning nil returns nil.
func (g *Grounding) Clone() *Grounding {
	if g == nil {
		return nil
	}
	c := &Grounding{
		Queries:          slices.Clone(g.Queries),
		SearchEntryPoint: g.SearchEntryPoint,
	}
	if g.Citations != nil {
		c.Citations = make([]Citation, len(g.Citations))
		for i, cit := range g.Citations {
			if cit.Web != nil {
				web := *cit.Web
				cit.Web = &web
			}
			c.Citations[i] = cit
		}
	}
	return c
}

// MergeGrounding applies the last-non-empty-wins rule: next replaces prev
// only when next carries at least one citation. The result never aliases
// next.
func MergeGrounding(prev, next *Grounding) *Grounding {
	if next.Empty() {
		return prev
	}
	return next.Clone()
}
