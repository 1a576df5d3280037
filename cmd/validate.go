package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"muabook/internal/consistency"
	"muabook/internal/logger"
	"muabook/internal/sheets"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every client, project and invoice",
	Long: `Validate runs every record through its validator and prints the findings.
It never writes to the store.

With --export-sheet the findings are appended to a Google Sheet, one row per
message. The sheet is taken from --sheet-url or GOOGLE_SHEET_URL and needs
GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.`,
	Example: `  # Human readable report
  muabook validate

  # JSON report of a postgres store
  muabook validate --backend postgres --json

  # Append findings to a sheet tab
  muabook validate --export-sheet --sheet-name "March audit"`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("export-sheet", false, "Append findings to a Google Sheet")
	validateCmd.Flags().String("sheet-url", "", "Google Sheets URL (default: GOOGLE_SHEET_URL)")
	validateCmd.Flags().String("sheet-name", "", "Sheet tab to append to (default: GOOGLE_SHEET_WORKSHEET or \"Findings <date>\")")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.engine.ValidateAllData(cmd.Context())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if export, _ := cmd.Flags().GetBool("export-sheet"); export {
		if err := exportFindings(cmd, a, report); err != nil {
			return err
		}
	}

	log.Info().
		Int("errors", report.Summary.TotalErrors).
		Int("warnings", report.Summary.TotalWarnings).
		Msg("Validation finished")

	return writeResult(cmd, report, func(w io.Writer) { printReport(w, report) })
}

func exportFindings(cmd *cobra.Command, a *app, report consistency.Report) error {
	log := logger.WithComponent("validate-export")

	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	if sheetURL == "" {
		sheetURL = a.cfg.GoogleSheetURL
	}
	if sheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL or --sheet-url is required for --export-sheet")
	}
	sheetName, _ := cmd.Flags().GetString("sheet-name")
	if sheetName == "" {
		sheetName = a.cfg.GoogleSheetWorksheet
	}
	if sheetName == "" {
		sheetName = sheets.SheetName(time.Now())
	}

	svc, err := sheets.NewSheetsService(cmd.Context(), sheetURL, a.cfg.GoogleCredentials())
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}
	n, err := svc.WriteFindings(cmd.Context(), report, sheetName)
	if err != nil {
		return fmt.Errorf("failed to export findings: %w", err)
	}

	log.Info().Str("sheet", sheetName).Int("rows", n).Msg("Findings exported")
	return nil
}
