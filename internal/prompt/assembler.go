package prompt

import (
	"strings"

	"docchat/internal/domain"
)

const (
	BeginContext = "--- BEGIN CONTEXT ---"
	EndContext   = "--- END CONTEXT ---"

	// DefaultSystemInstruction keeps answers grounded in the supplied context.
	DefaultSystemInstruction = "You are a helpful assistant that answers questions using only the provided context. " +
		"If the context does not contain the answer, say that you cannot find it in the documents. " +
		"Do not use outside knowledge."

	// NoContextReply is produced locally when retrieval yields nothing, instead
	// of sending an ungrounded request to the model.
	NoContextReply = "I couldn't find anything relevant in the knowledge base. " +
		"Either no documents are loaded, or none of them mention what you asked about."
)

// Assemble builds the generation request for one turn. The context block is
// appended to the system instruction only when context is non-empty.
func Assemble(settings domain.Settings, context, query string) domain.GenerationRequest {
	policy := settings.SystemInstruction
	if context != "" {
		var b strings.Builder
		b.WriteString(policy)
		b.WriteString("\n\n")
		b.WriteString(BeginContext)
		b.WriteString("\n")
		b.WriteString(context)
		b.WriteString("\n")
		b.WriteString(EndContext)
		policy = b.String()
	}
	return domain.GenerationRequest{
		Model:             settings.Model,
		Temperature:       settings.Temperature,
		SystemInstruction: policy,
		Context:           context,
		Query:             query,
	}
}
