package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      `{"message":"mock response","options":[],"moods":[],"ingredients":[]}`,
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var testSchema = &Schema{
	Name:       "reply",
	Definition: json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"}},"required":["message"]}`),
}

// --- Tests ---

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	for _, p := range []string{"anthropic", "openai"} {
		_, err := NewProvider(ProviderConfig{Type: p, Model: "some-model"})
		if err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Type: "google", Model: "some-model", APIKey: "k"})
	if err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestFactoryCreatesProviders(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "ollama"} {
		provider, err := NewProvider(ProviderConfig{Type: name, Model: "m", APIKey: "test-key"})
		if err != nil {
			t.Fatalf("NewProvider(%q): %v", name, err)
		}
		if provider.Name() != name {
			t.Errorf("expected name %q, got %q", name, provider.Name())
		}
	}

	provider, _ := NewProvider(ProviderConfig{Type: "ollama", Model: "llama3"})
	if p := provider.(*OllamaProvider); p.baseURL != DefaultOllamaURL {
		t.Errorf("expected default ollama host, got %q", p.baseURL)
	}

	provider, _ = NewProvider(ProviderConfig{Type: "ollama", Model: "llama3", BaseURL: "http://gpu-box:11434"})
	if p := provider.(*OllamaProvider); p.baseURL != "http://gpu-box:11434" {
		t.Errorf("expected configured ollama host, got %q", p.baseURL)
	}
}

func TestOpenAIProviderSendsJSONSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"gpt-4o","choices":[{"message":{"role":"assistant","content":"{\"message\":\"hi\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":4}}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	p := NewOpenAIProviderWithConfig(cfg, "gpt-4o")

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleSystem, Content: "be nice"}, {Role: RoleUser, Content: "hello"}},
		Schema:   testSchema,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"message":"hi"}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.InputTokens != 3 || resp.OutputTokens != 4 {
		t.Errorf("unexpected usage %d/%d", resp.InputTokens, resp.OutputTokens)
	}

	format, _ := got["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", got["response_format"])
	}
	js, _ := format["json_schema"].(map[string]any)
	if js["name"] != "reply" || js["strict"] != true {
		t.Errorf("unexpected json_schema block %v", js)
	}
}

func TestOllamaProviderPassesSchemaAsFormat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":{"role":"assistant","content":"{}"},"model":"llama3","done_reason":"stop"}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	if _, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
		Schema:   testSchema,
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(string(got.Format), `"required":["message"]`) {
		t.Errorf("expected schema in format, got %s", got.Format)
	}

	if _, err := p.Complete(context.Background(), CompletionRequest{JSONMode: true}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if string(got.Format) != `"json"` {
		t.Errorf("expected \"json\" format, got %s", got.Format)
	}
}

func TestOllamaProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Complete(context.Background(), CompletionRequest{})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestAnthropicProviderSystemPromptAndSchema(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"message\":"},{"type":"text","text":"\"hi\"}"}],"model":"claude","stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", "claude")
	p.baseURL = srv.URL

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a bartender."},
			{Role: RoleAssistant, Content: "Welcome in!"},
			{Role: RoleUser, Content: "Hi"},
		},
		Schema: testSchema,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"message":"hi"}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if !strings.HasPrefix(got.System, "You are a bartender.") || !strings.Contains(got.System, `"required":["message"]`) {
		t.Errorf("system prompt missing parts: %q", got.System)
	}
	if len(got.Messages) != 3 || got.Messages[0].Role != "user" {
		t.Errorf("expected a leading user turn, got %+v", got.Messages)
	}
}

func TestAnthropicProviderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("k", "claude")
	p.baseURL = srv.URL
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if err == nil || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("expected API error, got %v", err)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	mock := NewMockProvider("test")
	if p := NewRateLimitedProvider(mock, 0); p != Provider(mock) {
		t.Error("expected rpm 0 to return the provider unwrapped")
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != mock.Response {
		t.Error("expected the wrapped provider's response")
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	// Allow only 2 requests per minute.
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	req := CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hello"}}}
	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, req); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	// Third should block and eventually fail due to context timeout.
	if _, err := rl.Complete(ctx, req); err == nil {
		t.Error("expected error due to rate limiting + context timeout")
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls to reach the provider, got %d", mock.CallCount())
	}
}

func TestRateLimiterRefillsContinuously(t *testing.T) {
	now := time.Unix(0, 0)
	rl := &RateLimitedProvider{
		provider: NewMockProvider("test"),
		rpm:      60,
		tokens:   0,
		lastFill: now,
		now:      func() time.Time { return now },
	}

	if d := rl.take(); d != time.Second {
		t.Errorf("empty bucket at 60 rpm: wait = %v, want 1s", d)
	}

	now = now.Add(500 * time.Millisecond)
	if d := rl.take(); d != 500*time.Millisecond {
		t.Errorf("half-refilled bucket: wait = %v, want 500ms", d)
	}

	now = now.Add(500 * time.Millisecond)
	if d := rl.take(); d != 0 {
		t.Errorf("refilled bucket: wait = %v, want 0", d)
	}
}
