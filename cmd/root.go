// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "changelog-digest",
	Short: "Posts a weekly digest of changelog-worthy pull requests to Slack.",
	Long: `changelog-digest reads a GitHub repository's star count and its recently
closed pull requests, keeps those merged during the last week that carry the
"changelog" label, and posts a digest to a Slack incoming webhook.

Configuration is read from the environment (SLACK_HOOK, REPOSITORY,
GITHUB_TOKEN, ...), an optional .env file and an optional YAML file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to an optional YAML config file")
}

// newLogger builds the process logger. Verbose runs get the human-readable
// development encoder at debug level.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
