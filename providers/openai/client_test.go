package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noamelf/whatsapp-me/llm"
)

func TestChatSendsImagePartsAndJSONMode(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request decode error = %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"has_events\":false,\"events\":[]}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	res, err := c.Chat(context.Background(), llm.Request{
		Model: "gpt-4o-mini",
		Messages: []llm.Message{
			{Role: "system", Content: "extract events"},
			{Role: "user", Content: "check this flyer"},
		},
		ForceJSON: true,
		Images:    []string{"data:image/jpeg;base64,AAAA"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if res.Text == "" {
		t.Fatalf("Chat() returned empty text")
	}
	if res.Usage.TotalTokens != 15 {
		t.Fatalf("usage total = %d, want 15", res.Usage.TotalTokens)
	}

	if got.ResponseFormat == nil {
		t.Fatalf("expected response_format to be set")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	parts, ok := got.Messages[1].Content.([]any)
	if !ok {
		t.Fatalf("last message content should be multimodal parts, got %T", got.Messages[1].Content)
	}
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want text + image", len(parts))
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	if _, err := c.Chat(context.Background(), llm.Request{Model: "gpt-4o-mini", Messages: []llm.Message{{Role: "user", Content: "hi"}}}); err == nil {
		t.Fatalf("Chat() expected error on HTTP 429")
	}
}
