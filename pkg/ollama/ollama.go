package ollama

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const DefaultURL = "http://localhost:11434"

// New returns a client for the Ollama server at baseURL. Endpoint paths such
// as /api/generate are stripped so a full endpoint URL can be configured.
// A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*api.Client, error) {
	u, err := ParseURL(baseURL)

	if err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return api.NewClient(u, httpClient), nil
}

func ParseURL(baseURL string) (*url.URL, error) {
	baseURL = strings.TrimSpace(baseURL)

	if baseURL == "" {
		baseURL = DefaultURL
	}

	baseURL = strings.TrimRight(baseURL, "/")

	for _, suffix := range []string{"/api/generate", "/api/chat"} {
		baseURL = strings.TrimSuffix(baseURL, suffix)
	}

	u, err := url.Parse(baseURL)

	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid ollama url %q: scheme must be http or https", baseURL)
	}

	return u, nil
}

// NoStream disables response streaming on a request.
func NoStream() *bool {
	stream := false
	return &stream
}
