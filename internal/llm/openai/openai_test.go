package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docchat/internal/domain"
)

func sseServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenStreamReadsDeltasAndUsage(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, body map[string]any) {
		if body["model"] != "gpt-test" || body["stream"] != true {
			t.Errorf("unexpected request body %v", body)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"role":"assistant","content":"Par"},"finish_reason":null}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[{"index":0,"delta":{"content":"is."},"finish_reason":"stop"}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-test","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`,
		}
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 0})
	s, err := c.OpenStream(context.Background(), "sk-test", domain.GenerationRequest{
		Model:             "gpt-test",
		SystemInstruction: "be brief",
		Query:             "capital of France?",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var text strings.Builder
	var usage *domain.Usage
	for {
		ch, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		text.WriteString(ch.TextDelta)
		if ch.Usage != nil {
			usage = ch.Usage
		}
	}
	if text.String() != "Paris." {
		t.Fatalf("unexpected text %q", text.String())
	}
	if usage == nil || usage.TotalTokens != 15 || usage.PromptTokens != 12 {
		t.Fatalf("unexpected usage %+v", usage)
	}
}

func TestOpenStreamSurfacesProviderError(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})

	c := NewClient(Config{BaseURL: srv.URL})
	s, err := c.OpenStream(context.Background(), "sk-test", domain.GenerationRequest{Model: "gpt-test"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, err := s.Next(); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected a provider error, got %v", err)
	}
}

func TestOpenStreamRequiresModel(t *testing.T) {
	c := NewClient(Config{})
	if _, err := c.OpenStream(context.Background(), "k", domain.GenerationRequest{}); err == nil {
		t.Fatalf("expected an error without a model")
	}
}
