package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobsweep/jobsweep/internal/openai"
)

// Keys the config commands manage. Anything else in the file is left alone.
var managedKeys = []string{
	"openai-api-key",
	"firecrawl-api-key",
	"model",
	"cache-dir",
	"prompt",
	"chat-prompt",
}

var secretKeys = map[string]bool{
	"openai-api-key":    true,
	"firecrawl-api-key": true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage jobsweep configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the resolved configuration",
	Run: func(_ *cobra.Command, _ []string) {
		for _, key := range managedKeys {
			value := viper.GetString(key)
			switch {
			case value == "":
				fmt.Printf("%-20s (not set)\n", key)
			case secretKeys[key]:
				fmt.Printf("%-20s %s\n", key, maskSecret(value))
			default:
				fmt.Printf("%-20s %s\n", key, value)
			}
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value and write it to the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		if !isManagedKey(key) {
			return fmt.Errorf("unknown configuration key: %s (known: %s)", key, strings.Join(managedKeys, ", "))
		}

		viper.Set(key, args[1])
		return writeConfigFile()
	},
}

var configSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure credentials and defaults",
	RunE: func(_ *cobra.Command, _ []string) error {
		openaiKey, err := askSecret("OpenAI API key", viper.GetString("openai-api-key"))
		if err != nil {
			return err
		}

		firecrawlKey, err := askSecret("Firecrawl API key", viper.GetString("firecrawl-api-key"))
		if err != nil {
			return err
		}

		modelPrompt := promptui.Select{
			Label: "Default model",
			Items: openai.KnownModels(),
		}
		_, model, err := modelPrompt.Run()
		if err != nil {
			return err
		}

		if openaiKey != "" {
			viper.Set("openai-api-key", openaiKey)
		}
		if firecrawlKey != "" {
			viper.Set("firecrawl-api-key", firecrawlKey)
		}
		viper.Set("model", model)

		if err := writeConfigFile(); err != nil {
			return err
		}

		fmt.Println("Configuration saved. Run 'jobsweep config check' to review it.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetupCmd)
}

func askSecret(label, current string) (string, error) {
	if current != "" {
		label = fmt.Sprintf("%s (empty keeps %s)", label, maskSecret(current))
	}

	input := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}

	value, err := input.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", errors.New("setup aborted")
		}
		return "", err
	}

	return strings.TrimSpace(value), nil
}

func writeConfigFile() error {
	target := cfgFile
	if target == "" {
		target = app + ".yaml"
	}

	if err := viper.WriteConfigAs(target); err != nil {
		return fmt.Errorf("writing config file %q: %w", target, err)
	}

	return nil
}

func isManagedKey(key string) bool {
	for _, k := range managedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// maskSecret keeps a short recognizable prefix and hides the rest.
func maskSecret(s string) string {
	runes := []rune(s)
	if len(runes) <= 8 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:5]) + strings.Repeat("*", 6)
}
