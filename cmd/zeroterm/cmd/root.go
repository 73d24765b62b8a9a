package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeroterm/zeroterm/internal/config"
)

var (
	cfgFile     string
	homeDir     string
	verbose     bool
	accountFlag string
	cfg         *config.Config
	logger      *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "zeroterm",
	Short: "Interactive inbox triage from the terminal",
	Long: `zeroterm connects to an IMAP mailbox and groups the inbox by sender
so repetitive mail can be archived or deleted in bulk, with scoped
confirmation before anything touches a conversation involving other
people.

Running zeroterm with no arguments opens the triage interface on the
default account. Use 'zeroterm demo' to explore with a built-in
dataset and no mail server.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version never needs config
		if cmd.Name() == "version" {
			return nil
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if err := cfg.EnsureHomeDir(); err != nil {
			return fmt.Errorf("create data directory %s: %w", cfg.HomeDir, err)
		}

		return nil
	},
	RunE: runTriage,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $ZEROTERM_HOME/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "zeroterm home directory (default ~/.zeroterm)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&accountFlag, "account", "a", "", "account to triage (default from config)")
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
