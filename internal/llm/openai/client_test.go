package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/llm"
)

type recordedRequest struct {
	auth string
	body map[string]any
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(n int, body map[string]any) (int, string)
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{auth: r.Header.Get("Authorization"), body: body})
	n := len(f.requests)
	f.mu.Unlock()

	status, payload := f.handle(n, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, p *fakeProvider, key string) *Client {
	t.Helper()
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: key, BaseURL: srv.URL}, nil)
}

var testMessages = []llm.Message{
	{Role: llm.RoleSystem, Content: "You parse quotes."},
	{Role: llm.RoleUser, Content: "transcript"},
}

func TestChatJSONMode(t *testing.T) {
	p := &fakeProvider{handle: func(int, map[string]any) (int, string) {
		return http.StatusOK, completion("  {\"lead_id\": \"1234567\"}\n")
	}}
	c := newTestClient(t, p, "sk-test")

	resp, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{EnforceJSON: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != `{"lead_id": "1234567"}` {
		t.Errorf("Expected trimmed content, got %q", resp.Content)
	}
	if !resp.JSONMode {
		t.Error("Expected JSONMode true")
	}
	if len(p.requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(p.requests))
	}
	req := p.requests[0]
	if req.auth != "Bearer sk-test" {
		t.Errorf("Expected bearer auth, got %q", req.auth)
	}
	if req.body["model"] != "gpt-4.1-nano" {
		t.Errorf("Expected default model, got %v", req.body["model"])
	}
	if req.body["temperature"] != float64(0) {
		t.Errorf("Expected temperature 0, got %v", req.body["temperature"])
	}
	rf, ok := req.body["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Errorf("Expected json_object response_format, got %v", req.body["response_format"])
	}
	msgs, _ := req.body["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(msgs))
	}
}

func TestChatFallsBackWhenJSONModeRejected(t *testing.T) {
	p := &fakeProvider{handle: func(n int, body map[string]any) (int, string) {
		if _, ok := body["response_format"]; ok {
			return http.StatusBadRequest, `{"error": {"message": "response_format json_object is not supported with this model"}}`
		}
		return http.StatusOK, completion("```json\n{\"a\": 1}\n```")
	}}
	c := newTestClient(t, p, "sk-test")

	resp, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{EnforceJSON: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(p.requests) != 2 {
		t.Fatalf("Expected exactly 2 requests, got %d", len(p.requests))
	}
	if _, ok := p.requests[1].body["response_format"]; ok {
		t.Error("Expected retry without response_format")
	}
	if resp.JSONMode {
		t.Error("Expected JSONMode false after fallback")
	}
	if resp.Content != "```json\n{\"a\": 1}\n```" {
		t.Errorf("unexpected content %q", resp.Content)
	}
}

func TestChatFallbackHappensOnce(t *testing.T) {
	p := &fakeProvider{handle: func(int, map[string]any) (int, string) {
		return http.StatusBadRequest, `{"error": {"message": "bad request"}}`
	}}
	c := newTestClient(t, p, "sk-test")

	_, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{EnforceJSON: true})
	if !errors.Is(err, common.ErrProvider) {
		t.Fatalf("Expected ErrProvider, got %v", err)
	}
	if len(p.requests) != 2 {
		t.Errorf("Expected 2 requests, got %d", len(p.requests))
	}
}

func TestChatBadRequestWithoutJSONModeIsNotRetried(t *testing.T) {
	p := &fakeProvider{handle: func(int, map[string]any) (int, string) {
		return http.StatusBadRequest, `{"error": {"message": "context length exceeded"}}`
	}}
	c := newTestClient(t, p, "sk-test")

	_, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{})
	if !errors.Is(err, common.ErrProvider) {
		t.Fatalf("Expected ErrProvider, got %v", err)
	}
	if len(p.requests) != 1 {
		t.Errorf("Expected 1 request, got %d", len(p.requests))
	}
}

func TestChatServerErrorSurfacesProviderMessage(t *testing.T) {
	p := &fakeProvider{handle: func(int, map[string]any) (int, string) {
		return http.StatusInternalServerError, `{"error": {"message": "upstream overloaded"}}`
	}}
	c := newTestClient(t, p, "sk-test")

	_, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{EnforceJSON: true})
	if !errors.Is(err, common.ErrProvider) {
		t.Fatalf("Expected ErrProvider, got %v", err)
	}
	if len(p.requests) != 1 {
		t.Errorf("Expected no retry on 500, got %d requests", len(p.requests))
	}
	var ae *common.AppError
	if !errors.As(err, &ae) || ae.Message != "openai status 500: upstream overloaded" {
		t.Errorf("Expected provider message in error, got %v", err)
	}
}

func TestChatMissingKeyIsNotConfigured(t *testing.T) {
	p := &fakeProvider{handle: func(int, map[string]any) (int, string) {
		return http.StatusOK, completion("{}")
	}}
	c := newTestClient(t, p, "")

	_, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{EnforceJSON: true})
	if !errors.Is(err, common.ErrNotConfigured) {
		t.Fatalf("Expected ErrNotConfigured, got %v", err)
	}
	if errors.Is(err, common.ErrProvider) {
		t.Error("NotConfigured must be distinct from provider failures")
	}
	if len(p.requests) != 0 {
		t.Errorf("Expected no network attempt, got %d requests", len(p.requests))
	}
}

func TestChatNoChoices(t *testing.T) {
	p := &fakeProvider{handle: func(int, map[string]any) (int, string) {
		return http.StatusOK, `{"choices": []}`
	}}
	c := newTestClient(t, p, "sk-test")

	_, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{})
	if !errors.Is(err, common.ErrProvider) {
		t.Fatalf("Expected ErrProvider, got %v", err)
	}
}

func TestChatTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: url}, nil)
	_, err := c.Chat(context.Background(), testMessages, llm.ChatOptions{})
	if !errors.Is(err, common.ErrProvider) {
		t.Fatalf("Expected ErrProvider, got %v", err)
	}
}
