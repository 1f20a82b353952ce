package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromValue(t *testing.T) {
	t.Parallel()

	got, err := Load(Source{Name: "openai api key", Value: "  sk-123  "})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "sk-123" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestLoadFilePrecedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := Load(Source{Name: "openai api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file to take precedence, got %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(Source{Name: "firecrawl api key", File: filepath.Join(t.TempDir(), "nope")})
	if err == nil || !strings.Contains(err.Error(), "firecrawl api key") {
		t.Fatalf("expected named error, got %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Load(Source{Name: "openai api key"}); err == nil {
		t.Fatal("expected error when nothing is configured")
	}
}
