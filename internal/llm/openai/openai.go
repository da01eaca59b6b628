package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"docchat/internal/domain"
	"docchat/internal/llm"
)

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	client sdk.Client
}

// Config configures the OpenAI-compatible generation client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a client. Timeout bounds how long the endpoint may take
// to start responding; it does not cap the length of a stream.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = t
	return &Client{
		client: sdk.NewClient(
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(&http.Client{Transport: transport}),
			option.WithMaxRetries(cfg.MaxRetries),
		),
	}
}

// Name returns the identifier of this client implementation.
func (c *Client) Name() string { return "openai" }

// OpenStream starts a streaming chat completion. Provider errors surface on
// the first call to Next.
func (c *Client) OpenStream(ctx context.Context, apiKey string, req domain.GenerationRequest) (llm.Stream, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	params := sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(req.Model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(req.SystemInstruction),
			sdk.UserMessage(req.Query),
		},
		Temperature: sdk.Float(req.Temperature),
		StreamOptions: sdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: sdk.Bool(true),
		},
	}
	s := c.client.Chat.Completions.NewStreaming(ctx, params, option.WithAPIKey(apiKey))
	return &stream{s: s}, nil
}

type stream struct {
	s *ssestream.Stream[sdk.ChatCompletionChunk]
}

func (st *stream) Next() (domain.StreamChunk, error) {
	if !st.s.Next() {
		if err := st.s.Err(); err != nil {
			return domain.StreamChunk{}, fmt.Errorf("openai stream: %w", err)
		}
		return domain.StreamChunk{}, io.EOF
	}
	chunk := st.s.Current()
	var out domain.StreamChunk
	if len(chunk.Choices) > 0 {
		out.TextDelta = chunk.Choices[0].Delta.Content
		out.Final = chunk.Choices[0].FinishReason != ""
	}
	if chunk.Usage.TotalTokens > 0 {
		out.Usage = &domain.Usage{
			PromptTokens:     int(chunk.Usage.PromptTokens),
			CompletionTokens: int(chunk.Usage.CompletionTokens),
			TotalTokens:      int(chunk.Usage.TotalTokens),
		}
	}
	return out, nil
}

func (st *stream) Close() error { return st.s.Close() }
