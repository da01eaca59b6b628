// Package llm defines the generation client boundary. The provider wire
// protocol stays behind these interfaces.
package llm

import (
	"context"

	"docchat/internal/domain"
)

// Client opens streaming generation calls.
type Client interface {
	Name() string
	OpenStream(ctx context.Context, apiKey string, req domain.GenerationRequest) (Stream, error)
}

// Stream yields chunks in arrival order. Next returns io.EOF once the
// provider has finished. Close aborts the call and releases the connection.
type Stream interface {
	Next() (domain.StreamChunk, error)
	Close() error
}
