package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var (
	_ Backend = (*OpenAIBackend)(nil)
)

// OpenAIBackend talks to any OpenAI compatible chat completions endpoint.
type OpenAIBackend struct {
	client openai.Client
}

func NewOpenAI(baseURL, token string) *OpenAIBackend {
	if token == "" {
		token = "-"
	}

	client := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"),
		option.WithAPIKey(token),
		option.WithMaxRetries(0),
	)

	return &OpenAIBackend{
		client: client,
	}
}

func (b *OpenAIBackend) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	var params []openai.ChatCompletionMessageParamUnion

	for _, m := range messages {
		switch m.Role {
		case "system":
			params = append(params, openai.SystemMessage(m.Content))
		case "assistant":
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	completion, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: params,
	})

	if err != nil {
		var apiErr *openai.Error

		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%d %s", apiErr.StatusCode, apiErr.Message)
		}

		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("response contains no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
