package services

import (
	"strings"

	"github/itish2003/docsearch/models"

	"google.golang.org/genai"
)

// GetSystemPrompt defines how the model should treat retrieved document context.
func GetSystemPrompt() *genai.Content {
	prompt := `You answer questions about a single document the user uploaded.

Each message contains excerpts retrieved from that document followed by the user's question. Use the excerpts, and the earlier turns of this conversation, to answer. If the excerpts do not contain the answer, say that you don't know; do not make up an answer. Keep answers short and quote figures exactly as they appear in the document.`

	contents := genai.Text(prompt)
	if len(contents) == 0 {
		return nil
	}
	return contents[0]
}

// BuildDocumentPrompt lays out the retrieved chunks ahead of the question.
func BuildDocumentPrompt(question string, docs []models.SourceDocument) string {
	var sb strings.Builder
	sb.WriteString("Use the following pieces of context to answer the question at the end.\n\n")
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(doc.Text))
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\nHelpful Answer:")
	return sb.String()
}
