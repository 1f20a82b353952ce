// Package resume extracts plain text from resume files.
package resume

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Parse reads the resume at path and returns its plain text. PDF and plain
// text files are supported; anything else is an error.
func Parse(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("resume not found: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return parsePDF(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading resume: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("resume must be a .pdf or .txt file, got %s", filepath.Ext(path))
	}
}

func parsePDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	text, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	// PDF extraction produces ragged whitespace; collapse it so digests
	// stay stable across extractor quirks.
	return strings.Join(strings.Fields(buf.String()), " "), nil
}
