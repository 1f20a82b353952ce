package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/openai"
)

func TestExportMarkdown(t *testing.T) {
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldwd) })

	analysis := &openai.Analysis{
		Summary: "ok",
		Job:     openai.JobInfo{Title: "Go Engineer", Company: "X"},
		Meta:    openai.Meta{Key: "abc123"},
	}

	if err := export("md", analysis, zap.NewNop()); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(exportDir, "analysis_abc123.md"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "# Go Engineer at X") {
		t.Fatalf("unexpected export content:\n%s", data)
	}
}

func TestExportNone(t *testing.T) {
	t.Parallel()

	if err := export("none", &openai.Analysis{}, zap.NewNop()); err != nil {
		t.Fatalf("export none: %v", err)
	}
	if err := export("", &openai.Analysis{}, zap.NewNop()); err != nil {
		t.Fatalf("export empty: %v", err)
	}
}

func TestExportInvalidFormat(t *testing.T) {
	t.Parallel()

	err := export("pdf", &openai.Analysis{}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "pdf") {
		t.Fatalf("expected invalid format error, got %v", err)
	}
}
