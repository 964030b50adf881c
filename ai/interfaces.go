package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Session is a conversational context bound to one credential.
// Every Send sees the replies to earlier prompts on the same session.
// Implementations must serialize concurrent Sends.
type Session interface {
	// Send submits a prompt and returns the reply text. The reply is
	// untrusted free text.
	Send(ctx context.Context, prompt string) (string, error)
}

// SessionFactory creates sessions primed with a system prompt.
type SessionFactory interface {
	// NewSession creates a session that uses credential for every call and
	// starts its history with systemPrompt.
	NewSession(ctx context.Context, systemPrompt, credential string) (Session, error)
}

// EmbedderFactory creates an embedder for a named embedding model.
// Each retrieval backend owns its own embedder.
type EmbedderFactory interface {
	NewEmbedder(model string) (Embedder, error)
}
