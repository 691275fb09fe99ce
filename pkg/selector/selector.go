package selector

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/adrianliechti/wingman-chat/pkg/logging"
	"github.com/adrianliechti/wingman-chat/pkg/ollama"
	"github.com/adrianliechti/wingman-chat/pkg/prompt"
)

const DefaultModel = "mistral:latest"

// Generator is satisfied by *api.Client.
type Generator interface {
	Generate(ctx context.Context, req *api.GenerateRequest, fn api.GenerateResponseFunc) error
}

// Selector asks a lightweight model which tools are relevant to a query.
type Selector struct {
	model  string
	client Generator

	logger zerolog.Logger
}

func New(client Generator, model string) *Selector {
	if model == "" {
		model = DefaultModel
	}

	return &Selector{
		model:  model,
		client: client,

		logger: logging.Component("selector"),
	}
}

// Select returns the names of the tools the selector model picked, or nil
// when nothing usable came back. Failures never surface as errors.
func (s *Selector) Select(ctx context.Context, query string, available []string) []string {
	if available == nil {
		available = []string{}
	}

	tools, _ := json.Marshal(available)

	input, err := prompt.Render(prompt.Selector, map[string]any{
		"Tools": string(tools),
		"Query": query,
	})

	if err != nil {
		s.logger.Error().Err(err).Msg("failed to render selector prompt")
		return nil
	}

	var output strings.Builder

	err = s.client.Generate(ctx, &api.GenerateRequest{
		Model:  s.model,
		Prompt: strings.TrimSpace(input),
		Stream: ollama.NoStream(),
	}, func(resp api.GenerateResponse) error {
		output.WriteString(resp.Response)
		return nil
	})

	if err != nil {
		s.logger.Warn().Err(err).Msg("tool selection failed")
		return nil
	}

	names, ok := parseSelection(output.String())

	if !ok {
		s.logger.Warn().Str("output", output.String()).Msg("failed to parse tool selection response")
		return nil
	}

	return names
}

func parseSelection(output string) ([]string, bool) {
	output = strings.TrimSpace(output)

	if !gjson.Valid(output) {
		return nil, false
	}

	calls := gjson.Get(output, "tool_calls")

	if !calls.IsArray() {
		return nil, false
	}

	var names []string

	for _, call := range calls.Array() {
		if name := call.Get("name"); name.Type == gjson.String && name.String() != "" {
			names = append(names, name.String())
		}
	}

	if len(names) == 0 {
		return nil, false
	}

	return names, true
}
