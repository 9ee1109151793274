package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/dbsmedya/cmmcal/internal/report"
	"github.com/dbsmedya/cmmcal/internal/workbook"
	"github.com/spf13/cobra"
)

var (
	convertOutput     string
	convertSheet      string
	convertNoPreview  bool
	convertAllowEmpty bool
)

var convertCmd = &cobra.Command{
	Use:   "convert REPORT.txt",
	Short: "Convert a CMM TXT report into a spreadsheet",
	Long: `Convert parses a CMM inspection report and writes one row per measured
axis into a single-sheet XLSX workbook.

Checkpoint headers ("DIM <label> ... UNIDADES=MM") set the label of the
measurement lines that follow them. Lines that do not parse are skipped.

Example:
  cmmcal convert medicion.txt -o Mediciones_procesadas.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "",
		"Output workbook path (default from config)")
	convertCmd.Flags().StringVar(&convertSheet, "sheet", "",
		"Sheet name for the converted table (default from config)")
	convertCmd.Flags().BoolVar(&convertNoPreview, "no-preview", false,
		"Do not print the converted table")
	convertCmd.Flags().BoolVar(&convertAllowEmpty, "allow-empty", false,
		"Write a workbook even when the report holds no measurements")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(GetCLIOverrides())
	if err != nil {
		return err
	}
	defer log.Sync()

	if convertOutput != "" {
		cfg.Report.Output = convertOutput
	}
	if convertSheet != "" {
		cfg.Report.SheetName = convertSheet
	}

	input := args[0]
	log = log.WithFile(input)
	out := cmd.OutOrStdout()

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	res, err := report.NewParser(&cfg.Report, log).Parse(f)
	empty := errors.Is(err, report.ErrNoData)
	if err != nil && !empty {
		return err
	}

	printHeader(out, "CMM Report: %s", input)
	fmt.Fprintln(out)
	printSection(out, "Parse Summary")
	fmt.Fprintf(out, "  Lines:        %d\n", res.Stats.Lines)
	fmt.Fprintf(out, "  Checkpoints:  %d\n", res.Stats.Headers)
	fmt.Fprintf(out, "  Records:      %d\n", res.Stats.Records)
	fmt.Fprintf(out, "  Skipped:      %d\n", res.Stats.Skipped)
	fmt.Fprintf(out, "  Ignored:      %d\n", res.Stats.Ignored)
	fmt.Fprintln(out)

	if empty {
		log.Warnw("Report holds no measurement data", "allow_empty", convertAllowEmpty)
		if !convertAllowEmpty {
			printWarn(out, "No measurements found, nothing written")
			return nil
		}
	}

	if !convertNoPreview && !empty {
		printSection(out, "Preview")
		printMeasurements(out, res.Measurements)
		fmt.Fprintln(out)
	}

	var buf bytes.Buffer
	if err := workbook.WriteMeasurements(&buf, cfg.Report.SheetName, res.Measurements); err != nil {
		return err
	}
	if err := writeArtifacts(out, artifact{path: cfg.Report.Output, data: buf.Bytes()}); err != nil {
		return err
	}

	log.Infow("Workbook written", "output", cfg.Report.Output, "records", len(res.Measurements))
	printOK(out, "Wrote %d records to %s (sheet %q)", len(res.Measurements), cfg.Report.Output, cfg.Report.SheetName)
	return nil
}
