package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justsurfingit/Application-Tracker/internal/app"
	"github.com/justsurfingit/Application-Tracker/internal/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Google authentication",
}

var authGmailCmd = &cobra.Command{
	Use:   "gmail",
	Short: "Authorize read-only Gmail access for the inbox watcher",
	Long: `Runs the OAuth consent flow for the installed-app credentials file and
caches the resulting token so the server can watch the inbox unattended.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := auth.GmailClient(cmd.Context(), cfg.GmailCredentialsFile, cfg.GmailTokenFile, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Gmail token saved to %s\n", cfg.GmailTokenFile)
		return nil
	},
}

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Work with the Gmail inbox watcher",
}

var inboxSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one inbox sync cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		watcher, err := a.InboxWatcher(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		watcher.SyncEmails(cmd.Context())
		return nil
	},
}

func init() {
	authCmd.AddCommand(authGmailCmd)
	inboxCmd.AddCommand(inboxSyncCmd)
}
