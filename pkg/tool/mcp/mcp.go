package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/adrianliechti/wingman-chat/pkg/logging"
	"github.com/adrianliechti/wingman-chat/pkg/tool"
)

var (
	_ tool.Provider = (*Manager)(nil)
)

// Manager owns the sessions to every connected tool-host and the flat list
// of tools they expose.
type Manager struct {
	impl *mcp.Implementation

	logger zerolog.Logger

	mu       sync.RWMutex
	sessions []*session
	tools    []registeredTool
	index    map[string]int
}

type session struct {
	name string
	*mcp.ClientSession
}

type registeredTool struct {
	tool.Tool

	session *session
}

func New(name, version string) *Manager {
	return &Manager{
		impl: &mcp.Implementation{
			Name:    name,
			Version: version,
		},

		logger: logging.Component("mcp"),

		index: make(map[string]int),
	}
}

// Connect spawns the tool-host behind descriptor, performs the handshake and
// registers its tools.
func (m *Manager) Connect(ctx context.Context, descriptor string) error {
	transport, err := createTransport(descriptor)

	if err != nil {
		return err
	}

	return m.ConnectTransport(ctx, descriptor, transport)
}

// ConnectTransport registers the tools of the tool-host reachable through
// transport. name identifies the tool-host in logs.
func (m *Manager) ConnectTransport(ctx context.Context, name string, transport mcp.Transport) error {
	client := mcp.NewClient(m.impl, nil)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cs, err := client.Connect(ctx, transport, nil)

	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	s := &session{
		name:          name,
		ClientSession: cs,
	}

	tools, err := listTools(ctx, cs)

	if err != nil {
		cs.Close()
		return fmt.Errorf("%s: failed to list tools: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = append(m.sessions, s)

	for _, t := range tools {
		if _, exists := m.index[t.Name]; exists {
			m.logger.Warn().
				Str("server", name).
				Str("tool", t.Name).
				Msg("tool already registered by another server, skipping")

			continue
		}

		m.index[t.Name] = len(m.tools)
		m.tools = append(m.tools, registeredTool{
			Tool:    t,
			session: s,
		})
	}

	m.logger.Info().
		Str("server", name).
		Int("tools", len(tools)).
		Msg("connected")

	return nil
}

func listTools(ctx context.Context, cs *mcp.ClientSession) ([]tool.Tool, error) {
	var result []tool.Tool

	params := &mcp.ListToolsParams{}

	for {
		resp, err := cs.ListTools(ctx, params)

		if err != nil {
			return nil, err
		}

		for _, t := range resp.Tools {
			result = append(result, convertTool(t))
		}

		if resp.NextCursor == "" {
			break
		}

		params = &mcp.ListToolsParams{
			Cursor: resp.NextCursor,
		}
	}

	return result, nil
}

func convertTool(t *mcp.Tool) tool.Tool {
	schema := &tool.Schema{
		Type: "object",
	}

	if t.InputSchema != nil {
		if data, err := json.Marshal(t.InputSchema); err == nil {
			var s tool.Schema

			if err := json.Unmarshal(data, &s); err == nil {
				schema = &s
			}
		}
	}

	return tool.Tool{
		Name:        t.Name,
		Description: t.Description,

		Schema: schema,
	}
}

// Tools returns the metadata of every registered tool, in connection order.
func (m *Manager) Tools() []tool.Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]tool.Tool, 0, len(m.tools))

	for _, t := range m.tools {
		result = append(result, t.Tool)
	}

	return result
}

// Invoke calls the named tool on its owning session. Unknown tools and
// transport failures come back as error-flagged results.
func (m *Manager) Invoke(ctx context.Context, name string, args map[string]any) tool.Result {
	m.mu.RLock()
	idx, ok := m.index[name]

	var t registeredTool

	if ok {
		t = m.tools[idx]
	}
	m.mu.RUnlock()

	if !ok {
		return tool.Result{
			Content: fmt.Sprintf("Tool '%s' not found.", name),
			IsError: true,
		}
	}

	if args == nil {
		args = map[string]any{}
	}

	result, err := t.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})

	if err != nil {
		m.logger.Warn().Err(err).
			Str("server", t.session.name).
			Str("tool", name).
			Msg("tool call failed")

		return tool.Result{
			Content: err.Error(),
			IsError: true,
		}
	}

	return tool.Result{
		Content: CallResult{result},
		IsError: result.IsError,
	}
}

// Close closes every session. Failures are logged and do not stop the
// remaining sessions from closing.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions

	m.sessions = nil
	m.tools = nil
	m.index = make(map[string]int)
	m.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			m.logger.Debug().Err(err).
				Str("server", s.name).
				Msg("failed to close session")
		}
	}
}

// CallResult wraps an MCP tool call result so its text parts can be rendered.
type CallResult struct {
	*mcp.CallToolResult
}

func (r CallResult) TextParts() []string {
	var parts []string

	for _, c := range r.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
			continue
		}

		if data, err := json.Marshal(c); err == nil {
			parts = append(parts, string(data))
		}
	}

	if len(parts) == 0 && r.StructuredContent != nil {
		if data, err := json.Marshal(r.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}

	return parts
}

func (r CallResult) String() string {
	return strings.Join(r.TextParts(), "\n")
}
