package app

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adrianliechti/go-cli"
	"github.com/dimiro1/banner"
	"golang.org/x/term"

	"github.com/adrianliechti/wingman-chat/pkg/markdown"
	"github.com/adrianliechti/wingman-chat/pkg/tool"
)

const exitCommand = "quit"

type Agent interface {
	Process(ctx context.Context, query string) string
}

// App is the read-eval-print loop around an agent.
type App struct {
	agent    Agent
	registry tool.Provider

	model string

	in  io.Reader
	out io.Writer

	interactive bool
	render      func(string) string
}

type Option func(*App)

func WithModel(model string) Option {
	return func(a *App) {
		a.model = model
	}
}

// WithIO replaces stdin and stdout. Output is not rendered as markdown.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = in
		a.out = out
		a.interactive = false
	}
}

func New(agent Agent, registry tool.Provider, options ...Option) *App {
	a := &App{
		agent:    agent,
		registry: registry,

		in:  os.Stdin,
		out: os.Stdout,

		interactive: term.IsTerminal(int(os.Stdout.Fd())),
	}

	for _, option := range options {
		option(a)
	}

	a.render = func(s string) string { return s }

	if a.interactive {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))

		if err != nil || width > 120 {
			width = 120
		}

		if r, err := markdown.New(width, ""); err == nil {
			a.render = r.Render
		}
	}

	return a
}

// Run reads queries until "quit" or end of input.
func (a *App) Run(ctx context.Context) error {
	a.printHeader()

	scanner := bufio.NewScanner(a.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for ctx.Err() == nil {
		fmt.Fprint(a.out, "\nQuery: ")

		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())

		if query == "" {
			continue
		}

		if strings.EqualFold(query, exitCommand) {
			break
		}

		answer := a.agent.Process(ctx, query)

		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, a.render(answer))
	}

	a.printTools()

	return scanner.Err()
}

func (a *App) printHeader() {
	if a.interactive {
		tpl := "{{ .Title \"Wingman\" \"\" 0 }}\n"
		banner.Init(a.out, true, true, bytes.NewBufferString(tpl))
	}

	a.info("")
	a.info("MCP Client Started!")

	if a.model != "" {
		a.info("Using model: " + a.model)
	}

	a.info("Connected to servers with tools: " + strings.Join(tool.Names(a.registry.Tools()), ", "))
	a.info("Type your queries or '" + exitCommand + "' to exit.")
}

// info prints a header line. go-cli always writes to stdout, so other
// writers get the plain text.
func (a *App) info(line string) {
	if a.out == os.Stdout {
		cli.Info(line)
		return
	}

	fmt.Fprintln(a.out, line)
}

func (a *App) printTools() {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Available tools:")

	for _, t := range a.registry.Tools() {
		fmt.Fprintf(a.out, "- %s\n", t.Name)
	}
}
