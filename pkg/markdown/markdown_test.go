package markdown

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	r, err := New(80, "notty")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := r.Render("# Forecast\n\nIt will be **sunny** in Paris.")

	for _, want := range []string{"Forecast", "sunny", "Paris"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected %q in output, got: %s", want, result)
		}
	}

	if strings.HasPrefix(result, "\n") || strings.HasSuffix(result, "\n") {
		t.Errorf("expected trimmed output, got: %q", result)
	}
}

func TestRenderPlainText(t *testing.T) {
	r, err := New(0, "notty")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result := r.Render("An error occurred while processing your query: 500"); !strings.Contains(result, "500") {
		t.Errorf("expected text preserved, got: %s", result)
	}
}
