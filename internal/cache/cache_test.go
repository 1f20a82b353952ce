package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestDigestStable(t *testing.T) {
	t.Parallel()

	if Digest("hello", 0) != Digest("hello", 0) {
		t.Fatal("digest is not deterministic")
	}

	if Digest("hello", 0) == Digest("world", 0) {
		t.Fatal("distinct inputs produced the same digest")
	}
}

func TestDigestLimit(t *testing.T) {
	t.Parallel()

	base := strings.Repeat("a", 8000)
	longer := base + strings.Repeat("b", 500)

	if Digest(base, 8000) != Digest(longer, 8000) {
		t.Fatal("content beyond the limit changed the digest")
	}

	if Digest(base, 0) == Digest(longer, 0) {
		t.Fatal("unlimited digest ignored trailing content")
	}

	// Limit counts runes, not bytes.
	cyr := strings.Repeat("ф", 10)
	if Digest(cyr, 5) != Digest(strings.Repeat("ф", 5), 0) {
		t.Fatal("limit did not truncate on rune boundaries")
	}
}

func TestKeyOrderMatters(t *testing.T) {
	t.Parallel()

	if Key("a", "b") == Key("b", "a") {
		t.Fatal("expected key to depend on part order")
	}

	if Key("model", "url", "jd", "resume") != Key("model", "url", "jd", "resume") {
		t.Fatal("key is not deterministic")
	}

	if len(Key("x")) != 32 {
		t.Fatalf("expected 32-char hex key, got %d chars", len(Key("x")))
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), zap.NewNop())

	type doc struct {
		URL      string `json:"url"`
		Markdown string `json:"markdown"`
	}

	if store.Exists("firecrawl", "abc") {
		t.Fatal("expected empty store to report absence")
	}

	store.Write("firecrawl", "abc", doc{URL: "https://example.com", Markdown: "# Job"})

	if !store.Exists("firecrawl", "abc") {
		t.Fatal("expected document to exist after write")
	}

	var got doc
	if !store.Read("firecrawl", "abc", &got) {
		t.Fatal("expected read to succeed")
	}

	if got.URL != "https://example.com" || got.Markdown != "# Job" {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func TestStoreReadMalformed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root, zap.NewNop())

	path := filepath.Join(root, "openai", "bad.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if store.Read("openai", "bad", &got) {
		t.Fatal("expected malformed document to read as a miss")
	}
}

func TestStoreWriteCreatesNamespace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root, zap.NewNop())

	store.Write("openai", "deadbeef", map[string]string{"summary": "ok"})

	data, err := os.ReadFile(filepath.Join(root, "openai", "deadbeef.json"))
	if err != nil {
		t.Fatalf("expected file to be created: %v", err)
	}

	// Documents are pretty-printed for manual inspection.
	if !strings.Contains(string(data), "\n  ") {
		t.Fatalf("expected indented JSON, got: %s", data)
	}
}
