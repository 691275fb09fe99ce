package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"

	"github.com/adrianliechti/wingman-chat/pkg/ollama"
	"github.com/adrianliechti/wingman-chat/pkg/tool"
)

type fakeBackend struct {
	reply string
	err   error

	model    string
	messages []Message
}

func (f *fakeBackend) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	f.model = model
	f.messages = messages

	return f.reply, f.err
}

func weatherTool() tool.Tool {
	return tool.Tool{
		Name:        "get_weather",
		Description: "current weather for a city",

		Schema: &tool.Schema{
			Type: "object",

			Properties: map[string]*tool.Schema{
				"city": {Type: "string"},
			},

			Required: []string{"city"},
		},
	}
}

func TestComplete(t *testing.T) {
	backend := &fakeBackend{reply: "It is sunny."}

	c := New(backend, "llama3.2")
	c.SetTools([]tool.Tool{weatherTool()})

	resp, err := c.Complete(context.Background(), "weather in Paris?")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Text() != "It is sunny." {
		t.Errorf("unexpected text: %s", resp.Text())
	}

	if backend.model != "llama3.2" {
		t.Errorf("expected model llama3.2, got %s", backend.model)
	}

	if len(backend.messages) != 2 {
		t.Fatalf("expected system and user message, got %d", len(backend.messages))
	}

	system := backend.messages[0]

	if system.Role != "system" {
		t.Errorf("expected system role, got %s", system.Role)
	}

	for _, want := range []string{"Tool: get_weather", `"city"`, "tool_calls"} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("expected %q in system prompt, got:\n%s", want, system.Content)
		}
	}

	if backend.messages[1].Role != "user" || backend.messages[1].Content != "weather in Paris?" {
		t.Errorf("unexpected user message: %+v", backend.messages[1])
	}
}

func TestSetTools(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}

	c := New(backend, "llama3.2")
	c.SetTools([]tool.Tool{weatherTool()})
	c.SetTools(nil)

	if _, err := c.Complete(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	system := backend.messages[0].Content

	if strings.Contains(system, "get_weather") {
		t.Errorf("expected tool catalog to be cleared, got:\n%s", system)
	}

	if !strings.Contains(system, "No tools are available") {
		t.Errorf("expected no-tools notice, got:\n%s", system)
	}
}

func TestCompleteError(t *testing.T) {
	backend := &fakeBackend{err: api.StatusError{StatusCode: 500, Status: "500 Internal Server Error", ErrorMessage: "model crashed"}}

	_, err := New(backend, "llama3.2").Complete(context.Background(), "hi")

	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr api.StatusError

	if !errors.As(err, &statusErr) {
		t.Errorf("expected wrapped StatusError, got %v", err)
	}

	if !strings.HasPrefix(err.Error(), "model API error: ") {
		t.Errorf("expected model API error prefix, got: %v", err)
	}

	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "model crashed") {
		t.Errorf("expected status and body in error, got: %v", err)
	}
}

func TestResponseText(t *testing.T) {
	var nilResponse *Response

	if nilResponse.Text() != "No response" {
		t.Errorf("unexpected text for nil response: %s", nilResponse.Text())
	}

	if (&Response{}).Text() != "No response" {
		t.Errorf("unexpected text for empty response")
	}
}

func newOllamaClient(t *testing.T, url string) *api.Client {
	t.Helper()

	client, err := ollama.New(url, nil)

	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client
}

func TestOllamaBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req api.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Stream == nil || *req.Stream {
			t.Error("expected stream to be disabled")
		}

		if req.Model != "llama3.2" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Write([]byte(`{"message":{"role":"assistant","content":"Bonjour"},"done":true}`))
	}))
	defer server.Close()

	c := New(NewOllama(newOllamaClient(t, server.URL)), "llama3.2")

	resp, err := c.Complete(context.Background(), "hello in French")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Text() != "Bonjour" {
		t.Errorf("unexpected text: %s", resp.Text())
	}
}

func TestOllamaBackendMissingMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":true}`))
	}))
	defer server.Close()

	if _, err := NewOllama(newOllamaClient(t, server.URL)).Chat(context.Background(), "llama3.2", nil); err == nil {
		t.Error("expected error for missing message")
	}
}

func TestOllamaBackendStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer server.Close()

	_, err := New(NewOllama(newOllamaClient(t, server.URL)), "nope").Complete(context.Background(), "hi")

	var statusErr api.StatusError

	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}

	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", statusErr.StatusCode)
	}

	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected status and body in error, got: %v", err)
	}
}

func TestOpenAIBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"llama3.2","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hi there"}}]}`))
	}))
	defer server.Close()

	content, err := NewOpenAI(server.URL+"/v1", "").Chat(context.Background(), "llama3.2", []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if content != "Hi there" {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestOpenAIBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"model crashed","type":"server_error"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAI(server.URL+"/v1", "token").Chat(context.Background(), "llama3.2", []Message{
		{Role: "user", Content: "hi"},
	})

	if err == nil {
		t.Fatal("expected error")
	}

	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status code in error, got: %v", err)
	}
}
