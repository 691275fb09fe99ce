package model

import (
	"context"
	"errors"

	"github.com/ollama/ollama/api"

	"github.com/adrianliechti/wingman-chat/pkg/ollama"
)

var (
	_ Backend = (*OllamaBackend)(nil)
)

// OllamaBackend talks to the native /api/chat endpoint.
type OllamaBackend struct {
	client *api.Client
}

func NewOllama(client *api.Client) *OllamaBackend {
	return &OllamaBackend{
		client: client,
	}
}

func (b *OllamaBackend) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	req := &api.ChatRequest{
		Model:  model,
		Stream: ollama.NoStream(),
	}

	for _, m := range messages {
		req.Messages = append(req.Messages, api.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	var result *api.Message

	err := b.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Role != "" || resp.Message.Content != "" {
			message := resp.Message
			result = &message
		}

		return nil
	})

	if err != nil {
		return "", err
	}

	if result == nil {
		return "", errors.New("response contains no message")
	}

	return result.Content, nil
}
