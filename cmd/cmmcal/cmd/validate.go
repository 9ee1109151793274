package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/types"
	"github.com/dbsmedya/cmmcal/internal/workbook"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate WORKBOOK.xlsx",
	Short: "Validate configuration and comparison workbook schema",
	Long: `Validate checks the configuration file and the structure of a comparison
workbook without calculating anything.

Checks performed:
  - Configuration syntax and values
  - Perceptron, CMM, JSN mapping and axis mapping sheets exist
  - Required columns (JSN, PerceptronJSN, CMMJSN, PerceptronAxis, CMMAxis)
  - Every mapped axis exists as a column of its raw sheet

Example:
  cmmcal validate Comparacion.xlsx --config cmmcal.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(GetCLIOverrides())
	if err != nil {
		return err
	}
	defer log.Sync()

	input := args[0]
	log = log.WithFile(input)
	out := cmd.OutOrStdout()

	log.Info("Starting validation checks...")

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb, err := workbook.Open(f, log)
	if err != nil {
		return err
	}
	defer wb.Close()

	printHeader(out, "Workbook Validation: %s", input)
	fmt.Fprintf(out, "Config file: %s\n", configLabel())
	fmt.Fprintf(out, "Sheets found: %d\n\n", len(wb.Sheets()))

	printSheetReport(out, wb, &cfg.Compare)

	in, err := wb.Comparison(&cfg.Compare)
	if err == nil {
		err = offset.Validate(in)
	}
	if err != nil {
		var se *types.SchemaError
		if errors.As(err, &se) {
			for _, p := range se.Problems {
				printFail(out, "%s", p)
			}
			fmt.Fprintln(out)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "Axis mappings: %d\n", in.AxisMapping.Len())
	fmt.Fprintf(out, "JSN mappings:  %d\n\n", in.JSNMapping.Len())
	fmt.Fprintln(out, "=== Validation Complete ===")
	printOK(out, "Workbook is ready for offset calculation")
	return nil
}

func configLabel() string {
	if f := GetConfigFile(); f != "" {
		return f
	}
	return "(defaults)"
}

// printSheetReport lists each expected sheet with its size and columns.
func printSheetReport(w io.Writer, wb *workbook.Reader, cfg *config.CompareConfig) {
	for _, name := range cfg.Sheets() {
		printSection(w, name)
		if !wb.HasSheet(name) {
			printFail(w, "missing")
			fmt.Fprintln(w)
			continue
		}
		t, err := wb.Table(name)
		if err != nil {
			printFail(w, "%v", err)
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "  Rows:    %d\n", t.Len())
		fmt.Fprintf(w, "  Columns: %d\n", len(t.Columns))
		printOK(w, "present")
		fmt.Fprintln(w)
	}
}
