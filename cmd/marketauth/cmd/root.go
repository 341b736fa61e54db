// Package cmd provides the CLI commands for marketauth.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marketauth/marketauth/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "marketauth",
	Short: "marketauth - identity credential lifecycle for the marketplace backend",
	Long: `marketauth manages the marketplace identity credential lifecycle:
privileged login, role transitions, and the OTP-gated password reset
protocol.

Configuration:
  Config is loaded from marketauth.yaml in the current directory,
  $HOME/.marketauth/, or /etc/marketauth/.

  Environment variables override config values with the MARKETAUTH_ prefix.
  Example: MARKETAUTH_SECRETS_SUPERUSER_KEY=...

Commands:
  bootstrap      Create the singleton SUPERUSER identity
  seed           Load identities from a YAML seed file
  hash-password  Generate an Argon2id hash for a seed file entry
  version        Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./marketauth.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// newLogger builds the slog logger for CLI commands.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
