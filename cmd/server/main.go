package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/adrianliechti/wingman-chat/pkg/config"
	"github.com/adrianliechti/wingman-chat/pkg/server"
)

func main() {
	addr := os.Getenv("WINGMAN_ADDR")

	if addr == "" {
		addr = ":3000"
	}

	args := os.Args[1:]

	// --addr is consumed here, everything else is handed to the config parser
	flags := pflag.NewFlagSet("wingman-server", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.StringVar(&addr, "addr", addr, "address to listen on")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, cleanup, err := config.Load(ctx, withoutAddr(args))

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	defer cleanup()

	s := server.New(cfg.MCP)

	go func() {
		if err := s.ListenAndServe(addr); err != nil {
			log.Error().Err(err).Msg("server stopped")
			cancel()
		}
	}()

	<-ctx.Done()
}

func withoutAddr(args []string) []string {
	var result []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--addr" {
			i++
			continue
		}

		if strings.HasPrefix(arg, "--addr=") {
			continue
		}

		result = append(result, arg)
	}

	return result
}
