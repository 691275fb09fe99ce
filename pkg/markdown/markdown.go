package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

type Renderer struct {
	term *glamour.TermRenderer
}

// New creates a terminal renderer wrapping at width. An empty style picks
// a dark or light theme from the terminal background.
func New(width int, style string) (*Renderer, error) {
	styleOption := glamour.WithAutoStyle()

	if style != "" {
		styleOption = glamour.WithStandardStyle(style)
	}

	options := []glamour.TermRendererOption{
		styleOption,
		glamour.WithEmoji(),
	}

	if width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}

	term, err := glamour.NewTermRenderer(options...)

	if err != nil {
		return nil, err
	}

	return &Renderer{
		term: term,
	}, nil
}

// Render formats text for the terminal and falls back to the input on error.
func (r *Renderer) Render(text string) string {
	out, err := r.term.Render(text)

	if err != nil {
		return text
	}

	return strings.Trim(out, "\n")
}
