// Package prompts holds the built-in prompt templates shipped with the
// binary. Templates are YAML documents with a system prompt and a user
// template carrying {{JOB}} and {{RESUME}} placeholders.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed *.yml
var files embed.FS

// ErrNotFound is returned when no prompt with the requested name exists.
var ErrNotFound = errors.New("prompt not found")

// maxContextRunes bounds the job and resume text substituted into the user
// template so a single oversized posting cannot blow up the request.
const maxContextRunes = 12000

// Prompt is a named system/user template pair.
type Prompt struct {
	System       string `yaml:"system"`
	UserTemplate string `yaml:"user_template"`
}

// Load returns the prompt registered under the given name.
func Load(name string) (*Prompt, error) {
	data, err := files.ReadFile(name + ".yml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var p Prompt
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing prompt %s: %w", name, err)
	}

	if strings.TrimSpace(p.System) == "" || strings.TrimSpace(p.UserTemplate) == "" {
		return nil, fmt.Errorf("prompt %s is missing system or user_template", name)
	}

	return &p, nil
}

// RenderUser substitutes the job and resume text into the user template.
// Both inputs are truncated to a fixed rune budget.
func (p *Prompt) RenderUser(job, resume string) string {
	out := strings.ReplaceAll(p.UserTemplate, "{{JOB}}", truncateRunes(job, maxContextRunes))
	return strings.ReplaceAll(out, "{{RESUME}}", truncateRunes(resume, maxContextRunes))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
