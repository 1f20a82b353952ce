package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/openai"
)

// runChat drives the interactive follow-up loop. The scraped posting and the
// resume text are sent once on the first turn; later turns only carry the new
// question. Typing exit, quit or q ends the session.
func runChat(ctx context.Context, engine *openai.ChatEngine, jd, resumeText, promptName string, logg *zap.Logger) error {
	fmt.Println("\nAsk follow-up questions about this role (exit to leave).")

	var history []openai.Message

	for {
		input := promptui.Prompt{Label: "you"}

		question, err := input.Run()
		if err != nil {
			// ^C and ^D leave the loop like an explicit exit.
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		question = sanitizeInput(question)
		if question == "" {
			continue
		}

		switch strings.ToLower(question) {
		case "exit", "quit", "q":
			return nil
		}

		result, err := engine.AskStream(ctx, openai.AskRequest{
			Question:       question,
			JobDescription: jd,
			ResumeText:     resumeText,
			PromptName:     promptName,
			History:        history,
		}, func(delta string) {
			fmt.Print(delta)
		})
		if err != nil {
			return err
		}
		fmt.Println()

		if result.Meta.TotalCostUSD > 0 {
			logg.Debug("chat turn cost",
				zap.Float64("cost_usd", result.Meta.TotalCostUSD),
				zap.Int64("elapsed_ms", result.Meta.ElapsedMS),
			)
		}

		history = result.History
	}
}

// sanitizeInput strips ANSI escape sequences and non-printable characters
// that terminals can leak into pasted input.
func sanitizeInput(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inEscape := false
	for _, r := range s {
		if inEscape {
			// CSI sequences end on a letter-range final byte.
			if r >= 0x40 && r <= 0x7e && r != '[' {
				inEscape = false
			}
			continue
		}
		if r == 0x1b {
			inEscape = true
			continue
		}
		if unicode.IsPrint(r) || r == '\t' {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}
