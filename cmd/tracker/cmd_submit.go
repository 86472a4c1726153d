package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justsurfingit/Application-Tracker/internal/app"
	"github.com/justsurfingit/Application-Tracker/internal/handlers"
	"github.com/justsurfingit/Application-Tracker/internal/models"
	"github.com/justsurfingit/Application-Tracker/internal/services"
	"github.com/justsurfingit/Application-Tracker/internal/sheets"
)

var submitCmd = &cobra.Command{
	Use:   "submit [text...]",
	Short: "Log an application or an update to the sheet",
	Long: `Extract the application details from the text and add or update the
matching row. With no arguments the text is read from stdin.`,
	Example: `  tracker submit "Applied to Stripe for Backend Engineer, salary 180k"
  echo "Got rejected by Vercel" | tracker submit`,
	RunE: runSubmit,
}

var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Show what would be extracted without touching the sheet",
	RunE:  runExtract,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	text, err := readText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	c, outcome, err := a.Tracker.Submit(ctx, services.SourceCLI, text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, handlers.OutcomeMessage(outcome))
	printOutcome(out, c, outcome)
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	completer, err := app.NewCompleter(ctx, cfg)
	if err != nil {
		return err
	}
	extractor := services.NewExtractorService(completer, cfg.LLMMaxAttempts, cfg.LLMRetryDelay, logger)
	c, err := extractor.Extract(ctx, text)
	if err != nil {
		return err
	}
	printCandidate(cmd.OutOrStdout(), c)
	return nil
}

// readText joins args, or reads all of in when there are none.
func readText(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}

func printCandidate(w io.Writer, c *models.Candidate) {
	fmt.Fprintf(w, "action: %s\n", c.Action)
	for _, f := range models.Fields {
		if v := c.Get(f); v != "" {
			fmt.Fprintf(w, "%s: %s\n", f, v)
		}
	}
	for k, v := range c.Extra {
		fmt.Fprintf(w, "%s (unmapped): %s\n", k, v)
	}
}

func printOutcome(w io.Writer, c *models.Candidate, o *models.Outcome) {
	switch o.Kind {
	case models.OutcomeCreated:
		fmt.Fprintf(w, "row %d: %s / %s\n", o.Row, c.Company(), c.JobTitle())
	case models.OutcomeUpdated:
		fmt.Fprintf(w, "row %d:\n", o.Row)
		for _, cell := range o.Cells {
			fmt.Fprintf(w, "  %s (%s) = %s\n", cell.Header, sheets.A1(cell.Row, cell.Col), cell.Value)
		}
	}
	if o.Matches > 1 {
		fmt.Fprintf(w, "note: %d rows matched, the topmost was used\n", o.Matches)
	}
}
