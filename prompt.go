package omnirag

import "strings"

// Knowledge-base delimiters. Models cite documents by the name inside the
// "[Document: name]" header, so these strings are part of the prompt
// contract.
const (
	KnowledgeBaseBegin = "--- BEGIN KNOWLEDGE BASE ---"
	KnowledgeBaseEnd   = "--- END KNOWLEDGE BASE ---"
	DocumentSeparator  = "------------------------"
)

const promptPreamble = `You are an intelligent RAG (Retrieval-Augmented Generation) assistant.
Your goal is to provide accurate, helpful answers based on the provided Knowledge Base and your general knowledge.`

const knowledgeBaseIntro = `You have access to the following Knowledge Base consisting of uploaded user documents.
Always prioritize information found in this Knowledge Base when answering user questions.
If the answer is found in the Knowledge Base, cite the document name.`

const promptRules = `Rules:
1. Be concise and professional.
2. If using the Search Tool, always provide the source links.
3. If the answer is in the Knowledge Base, explicitly mention which document it came from.
4. Prefer Knowledge Base content over general knowledge when they disagree.`

// BuildPrompt assembles the system prompt for a new session. The result is
// a pure function of the documents (in order) and the extra instructions.
// With no documents the knowledge-base section is omitted entirely, never
// emitted as an empty block.
func BuildPrompt(docs []Document, extraInstructions string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n")

	if len(docs) > 0 {
		b.WriteString("\n")
		b.WriteString(knowledgeBaseIntro)
		b.WriteString("\n\n")
		b.WriteString(KnowledgeBaseBegin)
		b.WriteString("\n")
		for _, d := range docs {
			b.WriteString("\n[Document: ")
			b.WriteString(d.Name)
			b.WriteString("]\n")
			b.WriteString(d.Content)
			if !strings.HasSuffix(d.Content, "\n") {
				b.WriteString("\n")
			}
			b.WriteString(DocumentSeparator)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(KnowledgeBaseEnd)
		b.WriteString("\n")
	}

	if extra := strings.TrimSpace(extraInstructions); extra != "" {
		b.WriteString("\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptRules)
	b.WriteString("\n")
	return b.String()
}
