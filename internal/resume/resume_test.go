package resume

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTxt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "resume.txt")
	if err := os.WriteFile(path, []byte("5 years Go\nKubernetes"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(got, "5 years Go") {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestParseMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Parse(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "resume.docx")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Parse(path)
	if err == nil || !strings.Contains(err.Error(), ".docx") {
		t.Fatalf("expected unsupported-extension error, got %v", err)
	}
}

func TestParseExtensionCaseInsensitive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "resume.TXT")
	if err := os.WriteFile(path, []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Parse(path); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}
