// Package report renders analysis results for the terminal and for
// Markdown export.
package report

import (
	"fmt"
	"strings"

	"github.com/jobsweep/jobsweep/internal/openai"
)

const barWidth = 20

// Overview renders a plain-text terminal report.
func Overview(a *openai.Analysis) string {
	var b strings.Builder

	role := a.Job.Title
	if a.Job.Company != "" {
		if role != "" {
			role += " @ "
		}
		role += a.Job.Company
	}
	if role != "" {
		fmt.Fprintf(&b, "Role:     %s\n", role)
	}
	if a.Job.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", a.Job.Location)
	}
	if a.Meta.JobURL != "" {
		fmt.Fprintf(&b, "URL:      %s\n", a.Meta.JobURL)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%-22s %3d/100  %s\n", "overall", a.MatchScore, bar(a.MatchScore))
	fmt.Fprintf(&b, "%-22s %3d/100  %s\n", "skills_match", a.Scores.SkillsMatch, bar(a.Scores.SkillsMatch))
	fmt.Fprintf(&b, "%-22s %3d/100  %s\n", "experience_alignment", a.Scores.ExperienceAlignment, bar(a.Scores.ExperienceAlignment))
	fmt.Fprintf(&b, "%-22s %3d/100  %s\n", "keyword_coverage", a.Scores.KeywordCoverage, bar(a.Scores.KeywordCoverage))

	if a.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", a.Summary)
	}

	if len(a.StrongMatches) > 0 {
		b.WriteString("\nStrong matches:\n")
		for _, s := range limit(a.StrongMatches, 5) {
			fmt.Fprintf(&b, "  + %s\n", s)
		}
	}
	if len(a.Gaps) > 0 {
		b.WriteString("\nGaps:\n")
		for _, g := range limit(a.Gaps, 5) {
			fmt.Fprintf(&b, "  - %s\n", g)
		}
	}

	if len(a.Keywords.Missing) > 0 {
		b.WriteString("\nMissing keywords:\n")
		for _, k := range a.Keywords.Missing {
			if k.Priority != "" {
				fmt.Fprintf(&b, "  - %s (%s)\n", k.Token, k.Priority)
			} else {
				fmt.Fprintf(&b, "  - %s\n", k.Token)
			}
		}
	}

	cost := a.Meta.CostEstimate.TotalCostUSD
	if cost > 0 {
		fmt.Fprintf(&b, "\n~ $%.4f (%s, %dms)\n", cost, a.Meta.Model, a.Meta.ElapsedMS)
	}

	return b.String()
}

// Markdown renders the exportable Markdown report.
func Markdown(a *openai.Analysis) string {
	title := a.Job.Title
	if title == "" {
		title = "Job"
	}
	company := a.Job.Company
	if company == "" {
		company = "Company"
	}
	location := a.Job.Location
	if location == "" {
		location = "Unknown"
	}

	lines := []string{
		fmt.Sprintf("# %s at %s", title, company),
		fmt.Sprintf("**Location:** %s", location),
		fmt.Sprintf("**Match Score:** %d/100", a.MatchScore),
		"",
		"## Summary",
		a.Summary,
		"",
		"## Keywords",
		"",
		"### Matched",
	}
	for _, k := range a.Keywords.Matched {
		lines = append(lines, "- "+k)
	}

	lines = append(lines, "", "### Missing")
	for _, m := range a.Keywords.Missing {
		if m.Priority == "must_have" {
			lines = append(lines, fmt.Sprintf("- **%s** (must-have)", m.Token))
		}
	}
	for _, m := range a.Keywords.Missing {
		if m.Priority != "must_have" {
			lines = append(lines, fmt.Sprintf("- %s (preferred)", m.Token))
		}
	}
	lines = append(lines, "")

	if len(a.Keywords.QuickWins) > 0 {
		lines = append(lines, "### Quick Wins")
		for _, w := range limit(a.Keywords.QuickWins, 3) {
			lines = append(lines, "- "+w)
		}
		lines = append(lines, "")
	}

	if len(a.StrongMatches) > 0 {
		lines = append(lines, "## Strong Matches")
		for _, s := range limit(a.StrongMatches, 5) {
			lines = append(lines, "- "+s)
		}
		lines = append(lines, "")
	}

	if len(a.Gaps) > 0 {
		lines = append(lines, "## Gaps")
		for _, g := range limit(a.Gaps, 5) {
			lines = append(lines, "- "+g)
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"## Details",
		fmt.Sprintf("- **Skills Match:** %d/100", a.Scores.SkillsMatch),
		fmt.Sprintf("- **Experience Alignment:** %d/100", a.Scores.ExperienceAlignment),
		fmt.Sprintf("- **Keyword Coverage:** %d/100", a.Scores.KeywordCoverage),
		fmt.Sprintf("- **Model:** %s", a.Meta.Model),
		fmt.Sprintf("- **Job URL:** %s", a.Meta.JobURL),
	)

	return strings.Join(lines, "\n")
}

func bar(value int) string {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	filled := value * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func limit(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
