package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/adrianliechti/wingman-chat/pkg/agent"
	"github.com/adrianliechti/wingman-chat/pkg/app"
	"github.com/adrianliechti/wingman-chat/pkg/config"
	"github.com/adrianliechti/wingman-chat/pkg/tool/mcp"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, cleanup, err := config.Load(ctx, os.Args[1:])

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if errors.Is(err, mcp.ErrNoServers) {
			fmt.Fprintln(os.Stderr, "Usage: wingman-chat [flags] <path_to_server_script> [...]")
		}

		os.Exit(1)
	}

	defer cleanup()

	var selector agent.Selector

	if cfg.Selector != nil {
		selector = cfg.Selector
	}

	agent := agent.New(cfg.MCP, cfg.Model, selector)

	app := app.New(agent, cfg.MCP, app.WithModel(cfg.Model.Model()))

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		cleanup()
		os.Exit(1)
	}
}
