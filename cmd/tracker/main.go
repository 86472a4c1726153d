// Command tracker logs job applications from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/config"
	"github.com/justsurfingit/Application-Tracker/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Track job applications in a Google Sheet from plain English",
	Long: `tracker turns sentences like "Just applied to Stripe for Backend Engineer"
into rows of your job application spreadsheet, and updates existing rows
when you report news about an application.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			path = os.Getenv("TRACKER_SECRETS")
		}
		var err error
		cfg, err = config.Load(path, path != "")
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the secrets TOML file (default secrets.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(submitCmd, extractCmd, listCmd, historyCmd, authCmd, inboxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
