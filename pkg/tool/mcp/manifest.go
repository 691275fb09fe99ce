package mcp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

var ErrNoServers = errors.New("no tool-host servers configured")

// Manifest maps a tool-host name to the path of its build artifact.
type Manifest map[string]string

// LoadManifest reads a JSON or YAML manifest. Relative paths are resolved
// against the directory of the manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest

	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)

	for name, p := range manifest {
		if p == "" {
			return nil, fmt.Errorf("manifest %s: empty path for %q", path, name)
		}

		if !filepath.IsAbs(p) {
			manifest[name] = filepath.Join(dir, p)
		}
	}

	return manifest, nil
}

// Descriptors returns the manifest paths ordered by tool-host name.
func (m Manifest) Descriptors() []string {
	names := make([]string, 0, len(m))

	for name := range m {
		names = append(names, name)
	}

	slices.Sort(names)

	result := make([]string, 0, len(names))

	for _, name := range names {
		result = append(result, m[name])
	}

	return result
}

// ExpandDescriptors expands glob patterns such as packages/*/build/index.js.
// Plain paths are passed through untouched.
func ExpandDescriptors(patterns []string) ([]string, error) {
	var result []string

	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			result = append(result, p)
			continue
		}

		matches, err := doublestar.FilepathGlob(p)

		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}

		if len(matches) == 0 {
			return nil, fmt.Errorf("no server script matches %q", p)
		}

		result = append(result, matches...)
	}

	return result, nil
}
