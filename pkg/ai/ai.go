package ai

import (
	"context"
)

const (
	ROLE_SYSTEM    = "system"
	ROLE_USER      = "user"
	ROLE_ASSISTANT = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EmbeddingDriver converts texts to dense vectors through an external API.
// Implementations must return exactly one vector per input, in input
// order; anything else is a hard failure.
type EmbeddingDriver interface {
	Embedding(ctx context.Context, input []string) ([][]float32, error)
}

// ChatDriver answers chat completion requests. CompletionStream yields
// incremental content fragments and closes the channel at end of stream.
type ChatDriver interface {
	Completion(ctx context.Context, messages []Message, temperature float32) (string, error)
	CompletionStream(ctx context.Context, messages []Message, temperature float32) (<-chan string, error)
}

type Driver interface {
	EmbeddingDriver
	ChatDriver
}
