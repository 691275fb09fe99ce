package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Provider exposes tool metadata and invokes tools by name.
type Provider interface {
	Tools() []Tool
	Invoke(ctx context.Context, name string, args map[string]any) Result
}

type Tool struct {
	Name        string
	Description string

	Schema *Schema
}

type Schema = jsonschema.Schema

type Call struct {
	Name      string
	Arguments map[string]any
}

type Result struct {
	Content any
	IsError bool
}

func Names(tools []Tool) []string {
	names := make([]string, 0, len(tools))

	for _, t := range tools {
		names = append(names, t.Name)
	}

	return names
}

// Filter keeps the tools whose name is in names, in registry order.
func Filter(tools []Tool, names []string) []Tool {
	wanted := make(map[string]bool, len(names))

	for _, n := range names {
		wanted[n] = true
	}

	var result []Tool

	for _, t := range tools {
		if wanted[t.Name] {
			result = append(result, t)
		}
	}

	return result
}

// Text renders the result content as plain text. Text parts of MCP call
// results are joined by newlines, other values are encoded as indented JSON.
func (r Result) Text() string {
	switch c := r.Content.(type) {
	case nil:
		return ""

	case string:
		return c

	case fmt.Stringer:
		return c.String()

	case TextContainer:
		return strings.Join(c.TextParts(), "\n")
	}

	data, err := json.MarshalIndent(r.Content, "", "  ")

	if err != nil {
		return fmt.Sprintf("%v", r.Content)
	}

	return string(data)
}

// TextContainer is implemented by result payloads that carry text parts.
type TextContainer interface {
	TextParts() []string
}
