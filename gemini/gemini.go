// Package gemini implements [omnirag.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK chat API. Each session is a
// genai.Chat holding the server-side turn history; streaming uses the SDK's
// iter.Seq2 iterator, wrapped into the pull-based [omnirag.Stream] interface.
// Grounding metadata from the Google Search tool is mapped to
// [omnirag.Grounding].
package gemini

const defaultModel = "gemini-2.5-flash"
