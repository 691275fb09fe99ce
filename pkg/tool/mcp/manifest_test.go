package mcp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "manifest.json")

		content := `{"weather": "weather/build/index.js", "labs": "/opt/labs/server.py"}`

		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write manifest: %v", err)
		}

		manifest, err := LoadManifest(path)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		descriptors := manifest.Descriptors()

		expected := []string{"/opt/labs/server.py", filepath.Join(dir, "weather/build/index.js")}

		if len(descriptors) != len(expected) {
			t.Fatalf("expected %d descriptors, got %v", len(expected), descriptors)
		}

		for i := range expected {
			if descriptors[i] != expected[i] {
				t.Errorf("descriptor %d: expected %s, got %s", i, expected[i], descriptors[i])
			}
		}
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "manifest.yaml")

		content := "cve: cve/build/index.js\nproducts: products/build/index.js\n"

		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write manifest: %v", err)
		}

		manifest, err := LoadManifest(path)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(manifest) != 2 {
			t.Errorf("expected 2 entries, got %d", len(manifest))
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := LoadManifest(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("expected error for missing manifest")
		}
	})

	t.Run("empty path", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")

		if err := os.WriteFile(path, []byte(`{"weather": ""}`), 0644); err != nil {
			t.Fatalf("failed to write manifest: %v", err)
		}

		if _, err := LoadManifest(path); err == nil {
			t.Error("expected error for empty path")
		}
	})
}

func TestExpandDescriptors(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"cve", "weather"} {
		build := filepath.Join(dir, name, "build")

		if err := os.MkdirAll(build, 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}

		if err := os.WriteFile(filepath.Join(build, "index.js"), []byte("// server"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	t.Run("glob", func(t *testing.T) {
		result, err := ExpandDescriptors([]string{filepath.Join(dir, "*", "build", "index.js")})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result) != 2 {
			t.Errorf("expected 2 matches, got %v", result)
		}
	})

	t.Run("plain path passes through", func(t *testing.T) {
		result, err := ExpandDescriptors([]string{"missing/server.py"})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result) != 1 || result[0] != "missing/server.py" {
			t.Errorf("unexpected result: %v", result)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, err := ExpandDescriptors([]string{filepath.Join(dir, "*", "dist", "*.js")}); err == nil {
			t.Error("expected error when nothing matches")
		}
	})
}
