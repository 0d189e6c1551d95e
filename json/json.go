// Package json defines the JSON wire format for messages, documents and
// transcript exports. The HTTP API and transcript files share these DTOs.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/omnirag"
)

// transcriptVersion is the current transcript envelope version.
const transcriptVersion = 1

// Message is the JSON representation of an omnirag.Message. HTML is filled
// in by renderers that have a markdown converter.
type Message struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	HTML      string     `json:"html,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Streaming bool       `json:"streaming"`
	Failed    bool       `json:"failed,omitempty"`
	Grounding *Grounding `json:"grounding,omitempty"`
}

// Grounding is the JSON representation of an omnirag.Grounding.
type Grounding struct {
	Citations        []Citation `json:"citations"`
	Queries          []string   `json:"queries,omitempty"`
	SearchEntryPoint string     `json:"search_entry_point,omitempty"`
}

// Citation is a single grounding entry. URI and Title are empty for
// non-web sources.
type Citation struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// Document is the JSON representation of document metadata. Content is
// only included in transcripts.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MediaType string    `json:"media_type,omitempty"`
	Size      int64     `json:"size"`
	Tokens    int       `json:"tokens"`
	AddedAt   time.Time `json:"added_at"`
	Content   string    `json:"content,omitempty"`
}

// envelope is the v1 wire format for an exported transcript.
type envelope struct {
	Version      int        `json:"version"`
	ExportedAt   time.Time  `json:"exported_at"`
	SystemPrompt string     `json:"system_prompt"`
	Documents    []Document `json:"documents"`
	Messages     []Message  `json:"messages"`
}

// NewMessage converts a domain message to its JSON representation.
func NewMessage(m omnirag.Message) Message {
	return Message{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Streaming: m.Streaming,
		Failed:    m.Failed,
		Grounding: newGrounding(m.Grounding),
	}
}

// NewMessages converts a slice of domain messages.
func NewMessages(msgs []omnirag.Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = NewMessage(m)
	}
	return out
}

func newGrounding(g *omnirag.Grounding) *Grounding {
	if g == nil {
		return nil
	}
	out := &Grounding{
		Citations:        make([]Citation, 0, len(g.Citations)),
		Queries:          g.Queries,
		SearchEntryPoint: g.SearchEntryPoint,
	}
	for _, c := range g.Citations {
		var cit Citation
		if c.Web != nil {
			cit = Citation{URI: c.Web.URI, Title: c.Web.Title}
		}
		out.Citations = append(out.Citations, cit)
	}
	return out
}

// NewDocument converts document metadata. Content is omitted.
func NewDocument(d omnirag.Document) Document {
	return Document{
		ID:        d.ID,
		Name:      d.Name,
		MediaType: d.MediaType,
		Size:      d.Size,
		Tokens:    d.Tokens,
		AddedAt:   d.AddedAt,
	}
}

// NewDocuments converts a slice of documents. The result is never nil so
// it encodes as an empty JSON array.
func NewDocuments(docs []omnirag.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = NewDocument(d)
	}
	return out
}

// MarshalTranscript serializes a transcript in v1 envelope format,
// including document contents.
func MarshalTranscript(t omnirag.Transcript) ([]byte, error) {
	env := envelope{
		Version:      transcriptVersion,
		ExportedAt:   t.ExportedAt,
		SystemPrompt: t.SystemPrompt,
		Documents:    make([]Document, len(t.Documents)),
		Messages:     NewMessages(t.Messages),
	}
	for i, d := range t.Documents {
		env.Documents[i] = NewDocument(d)
		env.Documents[i].Content = d.Content
	}
	return json.MarshalIndent(env, "", "  ")
}

// Save writes a transcript to a JSON file, creating parent directories as
// needed. The file is replaced atomically.
func Save(path string, t omnirag.Transcript) error {
	data, err := MarshalTranscript(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
