package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobsweep"

	defaultCacheDir   = ".jobsweep-cache"
	defaultPrompt     = "swe_intern"
	defaultChatPrompt = "swe_intern_chat"
)

type Config struct {
	Model      string `mapstructure:"model"`
	CacheDir   string `mapstructure:"cache-dir"`
	Prompt     string `mapstructure:"prompt"`
	ChatPrompt string `mapstructure:"chat-prompt"`

	OpenAIAPIKey        string `mapstructure:"openai-api-key"`
	OpenAIAPIKeyFile    string `mapstructure:"openai-api-key-file"`
	FirecrawlAPIKey     string `mapstructure:"firecrawl-api-key"`
	FirecrawlAPIKeyFile string `mapstructure:"firecrawl-api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsweep is a cli for scoring a resume against a job posting and chatting about the result",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Secrets usually live in .env during local use; a missing file is fine.
	_ = godotenv.Load()

	bindings := map[string]string{
		"openai-api-key":    "OPENAI_API_KEY",
		"firecrawl-api-key": "FIRECRAWL_API_KEY",
		"model":             "OPENAI_MODEL",
		"cache-dir":         "JOBSWEEP_CACHE_DIR",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("cache-dir", defaultCacheDir)
	viper.SetDefault("prompt", defaultPrompt)
	viper.SetDefault("chat-prompt", defaultChatPrompt)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsweep.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional; environment variables and flags can carry
	// everything. A present but unparseable file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}
