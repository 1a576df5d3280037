package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"muabook/internal/consistency"
	"muabook/internal/logger"
)

// writeResult prints v as JSON when --json or --output is given, and calls
// text otherwise.
func writeResult(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	log := logger.WithComponent("output")

	asJSON, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")
	if !asJSON && outputPath == "" {
		text(cmd.OutOrStdout())
		return nil
	}

	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Result written to file")
		return nil
	}

	out := cmd.OutOrStdout()
	if _, err := out.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

func printSummary(w io.Writer, label string, s consistency.Summary) {
	state := "valid"
	if !s.IsValid {
		state = "INVALID"
	}
	fmt.Fprintf(w, "%-8s %s: %d errors, %d warnings\n", label, state, s.TotalErrors, s.TotalWarnings)
}

func printReport(w io.Writer, r consistency.Report) {
	printSummary(w, "Data", r.Summary)
	sections := []struct {
		name   string
		report consistency.EntityReport
	}{
		{"Clients", r.Clients},
		{"Projects", r.Projects},
		{"Invoices", r.Invoices},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n%s: %d valid, %d with errors, %d with warnings\n",
			s.name, s.report.Valid, len(s.report.Errors), len(s.report.Warnings))
		printIssues(w, "error", s.report.Errors)
		printIssues(w, "warning", s.report.Warnings)
	}
}

func printIssues(w io.Writer, severity string, issues []consistency.Issue) {
	for _, issue := range issues {
		for _, msg := range issue.Messages {
			fmt.Fprintf(w, "  [%s] #%d %s: %s\n", severity, issue.ID, issue.Name, msg)
		}
	}
}

func printSync(w io.Writer, r consistency.SyncResult) {
	fmt.Fprintln(w, r.Message)
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "  [error] %s\n", msg)
	}
	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "  [warning] %s\n", msg)
	}
}
