package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/adrianliechti/wingman-chat/pkg/logging"
	"github.com/adrianliechti/wingman-chat/pkg/tool"
)

// Server re-exposes the tools of a registry as a single stateless MCP
// streamable HTTP endpoint.
type Server struct {
	logger zerolog.Logger

	router *chi.Mux
}

func New(registry tool.Provider) *Server {
	s := &Server{
		logger: logging.Component("server"),
		router: chi.NewRouter(),
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "wingman-chat",
		Version: "1.0.0",
	}, nil)

	for _, t := range registry.Tools() {
		s.addTool(mcpServer, registry, t)
	}

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/mcp", cors.AllowAll().Handler(handler))

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,

		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("listening")

	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) addTool(srv *mcp.Server, registry tool.Provider, t tool.Tool) {
	schema := t.Schema

	if schema == nil || schema.Type != "object" {
		schema = &tool.Schema{Type: "object"}
	}

	mcpTool := &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,

		InputSchema: schema,
	}

	srv.AddTool(mcpTool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]any)

		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: "invalid arguments: " + err.Error()}},
					IsError: true,
				}, nil
			}
		}

		result := registry.Invoke(ctx, t.Name, args)

		s.logger.Debug().Str("tool", t.Name).Bool("error", result.IsError).Msg("tool call forwarded")

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Text()}},
			IsError: result.IsError,
		}, nil
	})
}
