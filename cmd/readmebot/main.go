// Readmebot is a conversational bot that turns a spoken or typed
// self-description into a GitHub profile README.
//
// Usage:
//
//	readmebot serve [--config /path/to/readmebot.yaml]
//	readmebot migrate up
//	readmebot render --input profile.yaml
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nadzzz/readmebot/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "readmebot",
	Short:        "Profile README bot",
	Long:         "readmebot interviews a user over HTTP, gRPC or Telegram and generates a GitHub profile README from what they say.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/readmebot.yaml)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	config.SetupLogging(cfg.Logging)
	return cfg, nil
}
