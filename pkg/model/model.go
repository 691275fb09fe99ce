package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/adrianliechti/wingman-chat/pkg/prompt"
	"github.com/adrianliechti/wingman-chat/pkg/tool"
)

// Backend performs a single non-streaming chat completion.
type Backend interface {
	Chat(ctx context.Context, model string, messages []Message) (string, error)
}

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Message *Message
}

// Text returns the message content, or "No response" when the model sent
// no message.
func (r *Response) Text() string {
	if r == nil || r.Message == nil {
		return "No response"
	}

	return r.Message.Content
}

// Client holds the tool context shared by every completion of a query.
type Client struct {
	model   string
	backend Backend

	mu    sync.RWMutex
	tools []tool.Tool
}

func New(backend Backend, model string) *Client {
	return &Client{
		model:   model,
		backend: backend,
	}
}

func (c *Client) Model() string {
	return c.model
}

// SetTools restricts the tool catalog embedded in the system prompt.
func (c *Client) SetTools(tools []tool.Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tools = tools
}

// Complete sends the system prompt and userPrompt and returns the reply.
func (c *Client) Complete(ctx context.Context, userPrompt string) (*Response, error) {
	system, err := c.systemPrompt()

	if err != nil {
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}

	content, err := c.backend.Chat(ctx, c.model, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: userPrompt},
	})

	if err != nil {
		return nil, fmt.Errorf("model API error: %w", err)
	}

	return &Response{
		Message: &Message{
			Role:    "assistant",
			Content: content,
		},
	}, nil
}

type toolDoc struct {
	Name        string
	Description string
	Schema      string
}

func (c *Client) systemPrompt() (string, error) {
	c.mu.RLock()
	tools := c.tools
	c.mu.RUnlock()

	docs := make([]toolDoc, 0, len(tools))

	for _, t := range tools {
		schema := "{}"

		if t.Schema != nil {
			if data, err := json.MarshalIndent(t.Schema, "", "  "); err == nil {
				schema = string(data)
			}
		}

		docs = append(docs, toolDoc{
			Name:        t.Name,
			Description: t.Description,
			Schema:      schema,
		})
	}

	return prompt.Render(prompt.System, map[string]any{
		"Tools": docs,
	})
}
