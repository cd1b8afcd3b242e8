// Package cmd provides the command-line interface for codeintake with
// configuration management supporting multiple configuration sources.
//
// Configuration precedence, highest to lowest:
//  1. Command-line flags (--config, --workers, etc.)
//  2. CODEINTAKE_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (CODEINTAKE_PIPELINE_WORKERS, etc.)
//  4. Configuration file (.codeintake.yml)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codeintake/codeintake/internal/config"
	"github.com/codeintake/codeintake/internal/logging"
	"github.com/codeintake/codeintake/internal/security"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codeintake",
	Short: "Secure concurrent source-file ingestion for code intelligence",
	Long: `Codeintake ingests source files from a developer workspace for downstream
code-intelligence processing (parsing, indexing, search).

The ingestion pipeline enforces a workspace boundary, refuses to follow
symlinks, and fans file reads out across a worker pool while keeping
individual file failures from derailing the run.

Quick Start:
  codeintake ingest               Ingest the current workspace
  codeintake ingest --root DIR    Ingest a specific workspace root
  codeintake watch                Re-ingest files as they change`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .codeintake.yml, can also use CODEINTAKE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system with support for
// multiple config sources.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("CODEINTAKE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".codeintake")
	}

	viper.SetEnvPrefix("CODEINTAKE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file degrades to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from configuration and installs it
// as the security audit sink.
func newLogger(cfg *config.Config) logging.Logger {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	security.SetAuditLogger(logger)
	return logger
}
