package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/adrianliechti/wingman-chat/pkg/logging"
	"github.com/adrianliechti/wingman-chat/pkg/model"
	"github.com/adrianliechti/wingman-chat/pkg/prompt"
	"github.com/adrianliechti/wingman-chat/pkg/tool"
	"github.com/adrianliechti/wingman-chat/pkg/toolcall"
)

type Model interface {
	SetTools(tools []tool.Tool)
	Complete(ctx context.Context, userPrompt string) (*model.Response, error)
}

type Selector interface {
	Select(ctx context.Context, query string, available []string) []string
}

// Agent runs the query pipeline: select tools, ask the model, run the tool
// calls it requests and have the model analyze each result.
type Agent struct {
	registry tool.Provider
	model    Model
	selector Selector

	logger zerolog.Logger
}

// New creates an agent. A nil selector offers every registered tool to the
// model.
func New(registry tool.Provider, model Model, selector Selector) *Agent {
	return &Agent{
		registry: registry,
		model:    model,
		selector: selector,

		logger: logging.Component("agent"),
	}
}

// Process answers query. Failures are rendered into the returned text.
func (a *Agent) Process(ctx context.Context, query string) (answer string) {
	logger := a.logger.With().Str("query_id", uuid.NewString()).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("query processing panicked")
			answer = formatError(fmt.Errorf("%v", r))
		}
	}()

	result, err := a.process(logger.WithContext(ctx), query)

	if err != nil {
		logger.Error().Err(err).Msg("query failed")
		return formatError(err)
	}

	return result
}

func formatError(err error) string {
	return "An error occurred while processing your query: " + err.Error()
}

func (a *Agent) process(ctx context.Context, query string) (string, error) {
	logger := zerolog.Ctx(ctx)

	tools := a.selectTools(ctx, query)

	logger.Info().
		Strs("tools", tool.Names(tools)).
		Msg("tools suggested for this query")

	a.model.SetTools(tools)

	resp, err := a.model.Complete(ctx, query)

	if err != nil {
		return "", err
	}

	content := resp.Text()
	reply := toolcall.Decode(content)

	if !reply.HasCalls() {
		return content, nil
	}

	analyses := make([]string, len(reply.Calls))

	g, gctx := errgroup.WithContext(ctx)

	for i, call := range reply.Calls {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					zerolog.Ctx(ctx).Error().Str("tool", call.Name).Interface("panic", r).Msg("tool call panicked")
					err = fmt.Errorf("%s: %v", call.Name, r)
				}
			}()

			analysis, err := a.runCall(gctx, call)

			if err != nil {
				return fmt.Errorf("%s: %w", call.Name, err)
			}

			analyses[i] = analysis

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	return joinAnalyses(reply.Text, analyses), nil
}

func (a *Agent) selectTools(ctx context.Context, query string) []tool.Tool {
	tools := a.registry.Tools()

	if a.selector == nil || len(tools) == 0 {
		return tools
	}

	names := a.selector.Select(ctx, query, tool.Names(tools))

	return tool.Filter(tools, names)
}

func (a *Agent) runCall(ctx context.Context, call tool.Call) (string, error) {
	logger := zerolog.Ctx(ctx)

	args := toolcall.NormalizeArguments(call.Arguments)

	logger.Info().
		Str("tool", call.Name).
		Interface("args", args).
		Msg("calling tool")

	result := a.registry.Invoke(ctx, call.Name, args)

	if result.IsError {
		logger.Warn().Str("tool", call.Name).Str("result", result.Text()).Msg("tool returned an error")
	}

	input, err := prompt.Render(prompt.Analysis, map[string]any{
		"Result": formatResult(result),
	})

	if err != nil {
		return "", err
	}

	resp, err := a.model.Complete(ctx, input)

	if err != nil {
		return "", err
	}

	if resp.Message == nil || resp.Message.Content == "" {
		return "No analysis provided.", nil
	}

	return resp.Message.Content, nil
}

func formatResult(result tool.Result) string {
	text := result.Text()

	if result.IsError {
		return "Error: " + text
	}

	return text
}

func joinAnalyses(preamble string, analyses []string) string {
	var sb strings.Builder

	if preamble != "" {
		sb.WriteString(preamble)
		sb.WriteString("\n\n")
	}

	for i, analysis := range analyses {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		sb.WriteString("Analysis:\n")
		sb.WriteString(analysis)
	}

	return sb.String()
}
