package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobsweep/jobsweep/internal/cache"
	"github.com/jobsweep/jobsweep/internal/firecrawl"
	"github.com/jobsweep/jobsweep/internal/logger"
	"github.com/jobsweep/jobsweep/internal/openai"
	"github.com/jobsweep/jobsweep/internal/report"
	"github.com/jobsweep/jobsweep/internal/resume"
	"github.com/jobsweep/jobsweep/internal/secrets"
)

const exportDir = "outputs"

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume-path> [url]",
	Short: "Score a resume against a job posting",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("export", "none", "export format: json, md or none")
	analyzeCmd.Flags().StringP("model", "m", "", "model override, e.g. gpt-4o-mini")
	analyzeCmd.Flags().String("prompt", "", "analysis prompt name")
	analyzeCmd.Flags().String("chat-prompt", "", "chat prompt name")
	analyzeCmd.Flags().String("jd-file", "", "read the job posting from a local file instead of a url")
	analyzeCmd.Flags().BoolP("force", "f", false, "re-run the analysis even when a cached result exists")
	analyzeCmd.Flags().BoolP("chat", "c", false, "start a follow-up chat after the report")
}

func analyze(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logg.Fatal("getting a config", zap.Error(err))
	}

	resumePath := args[0]
	jobURL := ""
	if len(args) == 2 {
		jobURL = args[1]
	}
	jdFile := flagString(cmd, "jd-file")

	if jobURL == "" && jdFile == "" {
		logg.Fatal("a job posting is required",
			zap.String("hint", "pass a url argument or --jd-file"),
		)
	}

	openaiKey, err := secrets.Load(secrets.Source{
		Name:  "openai api key",
		Value: viper.GetString("openai-api-key"),
		File:  config.OpenAIAPIKeyFile,
	})
	if err != nil {
		logg.Fatal("loading openai api key",
			zap.Error(err),
			zap.String("hint", "set OPENAI_API_KEY or the 'openai-api-key' key in the configuration file"),
		)
	}

	store := cache.NewStore(viper.GetString("cache-dir"), logg)

	jd, err := loadJobDescription(ctx, config, store, logg, jobURL, jdFile)
	if err != nil {
		logg.Fatal("loading the job posting", zap.Error(err))
	}

	resumeText, err := resume.Parse(resumePath)
	if err != nil {
		logg.Fatal("parsing the resume", zap.Error(err))
	}

	client, err := openai.New(openaiKey, logg)
	if err != nil {
		logg.Fatal("creating the openai client", zap.Error(err))
	}

	model := flagString(cmd, "model")
	if model == "" {
		model = viper.GetString("model")
	}
	promptName := flagString(cmd, "prompt")
	if promptName == "" {
		promptName = viper.GetString("prompt")
	}

	llmLogger := logger.WithCommonFields(logg, "openai", model)

	analyzer := openai.NewAnalyzer(client, store, model, llmLogger)
	analysis, err := analyzer.Analyze(ctx, openai.AnalyzeRequest{
		JobDescription: jd,
		ResumeText:     resumeText,
		Model:          model,
		JobURL:         jobURL,
		Force:          flagBool(cmd, "force"),
		PromptName:     promptName,
	})
	if err != nil {
		logg.Fatal("running the analysis", zap.Error(err))
	}

	fmt.Print(report.Overview(analysis))

	if err := export(flagString(cmd, "export"), analysis, logg); err != nil {
		logg.Fatal("exporting the analysis", zap.Error(err))
	}

	if flagBool(cmd, "chat") {
		chatPrompt := flagString(cmd, "chat-prompt")
		if chatPrompt == "" {
			chatPrompt = viper.GetString("chat-prompt")
		}

		engine := openai.NewChatEngine(client, model, llmLogger)
		if err := runChat(ctx, engine, jd, resumeText, chatPrompt, logg); err != nil {
			logg.Fatal("chat session failed", zap.Error(err))
		}
	}
}

// loadJobDescription returns the posting markdown, either scraped from the
// url (cache-backed) or read from a local file.
func loadJobDescription(ctx context.Context, config *Config, store *cache.Store, logg *zap.Logger, jobURL, jdFile string) (string, error) {
	if jdFile != "" {
		data, err := os.ReadFile(jdFile)
		if err != nil {
			return "", fmt.Errorf("reading job posting file: %w", err)
		}
		return string(data), nil
	}

	firecrawlKey, err := secrets.Load(secrets.Source{
		Name:  "firecrawl api key",
		Value: viper.GetString("firecrawl-api-key"),
		File:  config.FirecrawlAPIKeyFile,
	})
	if err != nil {
		return "", fmt.Errorf("%w (set FIRECRAWL_API_KEY or use --jd-file)", err)
	}

	scraper, err := firecrawl.New(firecrawlKey, store, logg)
	if err != nil {
		return "", err
	}

	return scraper.Scrape(ctx, jobURL)
}

func export(format string, analysis *openai.Analysis, logg *zap.Logger) error {
	switch format {
	case "none", "":
		return nil
	case "json":
		pretty, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	case "md":
		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}

		path := filepath.Join(exportDir, "analysis_"+analysis.Meta.Key+".md")
		if err := os.WriteFile(path, []byte(report.Markdown(analysis)), 0o644); err != nil {
			return fmt.Errorf("writing markdown export: %w", err)
		}

		logg.Info("exported markdown report", zap.String("path", path))
		return nil
	default:
		return fmt.Errorf("invalid export format: %s", format)
	}
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
