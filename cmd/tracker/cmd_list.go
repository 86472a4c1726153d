package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/justsurfingit/Application-Tracker/internal/app"
	"github.com/justsurfingit/Application-Tracker/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every row of the sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		sheet, err := a.Tracker.List(ctx)
		if err != nil {
			return fmt.Errorf("could not fetch data from the sheet: %w", err)
		}
		return printSheet(cmd.OutOrStdout(), sheet)
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent changes from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if a.DB == nil {
			return fmt.Errorf("history needs database_url to be set")
		}
		events, err := a.Tracker.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		return printEvents(cmd.OutOrStdout(), events)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
}

func printSheet(w io.Writer, sheet *models.Sheet) error {
	if len(sheet.Rows) == 0 {
		_, err := fmt.Fprintln(w, "Your sheet is empty. Add your first application!")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(sheet.Headers, "\t"))
	for _, row := range sheet.Rows {
		cells := make([]string, len(sheet.Headers))
		copy(cells, row)
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func printEvents(w io.Writer, events []models.ApplicationEvent) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSOURCE\tKIND\tROW\tCOMPANY\tJOB TITLE\tCHANGES")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			e.CreatedAt.Format(models.TimestampLayout), e.Source, e.Kind, e.Row, e.Company, e.JobTitle, e.Details)
	}
	return tw.Flush()
}
