package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/gauge"
	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/workbook"
	"github.com/spf13/cobra"
)

var (
	compareSummaryOut   string
	compareXMLOut       string
	compareStation      string
	compareModel        string
	compareDuplicateJSN string
	compareNoPreview    bool
)

var compareCmd = &cobra.Command{
	Use:   "compare WORKBOOK.xlsx",
	Short: "Calculate Perceptron offsets against CMM measurements",
	Long: `Compare joins Perceptron and CMM measurements of the same parts through the
JSN and axis mapping sheets, then computes per axis mapping:

  - Mean of each side
  - Pearson correlation coefficient
  - 6 Sigma of the paired differences
  - Offset (CMM mean - Perceptron mean)

The results are written as an offset summary workbook and a gauge offset XML
document. Nothing is written when the workbook fails schema validation.

Example:
  cmmcal compare Comparacion.xlsx --station T1XX_FLEX_Front_Mod --model K_SUV`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareSummaryOut, "summary-out", "",
		"Offset summary workbook path (default from config)")
	compareCmd.Flags().StringVar(&compareXMLOut, "xml-out", "",
		"Gauge XML path, '-' for stdout (default from config)")
	compareCmd.Flags().StringVar(&compareStation, "station", "",
		"Override gauge station name")
	compareCmd.Flags().StringVar(&compareModel, "model", "",
		"Override gauge model name")
	compareCmd.Flags().StringVar(&compareDuplicateJSN, "duplicate-jsn", "",
		"Override duplicate JSN policy (first, error)")
	compareCmd.Flags().BoolVar(&compareNoPreview, "no-preview", false,
		"Do not print the offset summary")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	overrides := GetCLIOverrides()
	overrides.StationName = compareStation
	overrides.ModelName = compareModel
	overrides.DuplicateJSN = compareDuplicateJSN
	overrides.GaugeOutput = compareXMLOut

	cfg, log, err := setup(overrides)
	if err != nil {
		return err
	}
	defer log.Sync()

	if compareSummaryOut != "" {
		cfg.Compare.SummaryOutput = compareSummaryOut
	}

	input := args[0]
	log = log.WithFile(input)
	out := cmd.OutOrStdout()
	if cfg.Gauge.Output == stdoutPath {
		out = cmd.ErrOrStderr()
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	in, err := workbook.ReadComparison(f, &cfg.Compare, log)
	if err != nil {
		return err
	}

	res, err := offset.NewCalculator(&cfg.Compare, log).Calculate(in)
	if err != nil {
		return err
	}

	var summary bytes.Buffer
	if err := workbook.WriteOffsetSummary(&summary, cfg.Compare.SummarySheet, res.Records); err != nil {
		return err
	}
	doc, gstats, err := gauge.Marshal(res.Records, gauge.OptionsFromConfig(&cfg.Gauge))
	if err != nil {
		return err
	}

	printHeader(out, "Offset Calculation: %s", input)
	fmt.Fprintln(out)
	printCompareStats(out, cfg, res.Stats, gstats)

	if !compareNoPreview && len(res.Records) > 0 {
		printSection(out, "Offset Summary")
		printSummary(out, res.Records)
		fmt.Fprintln(out)
	}

	err = writeArtifacts(cmd.OutOrStdout(),
		artifact{path: cfg.Compare.SummaryOutput, data: summary.Bytes()},
		artifact{path: cfg.Gauge.Output, data: renderXML(cfg.Gauge.Output, doc)},
	)
	if err != nil {
		return err
	}

	log.Infow("Offsets written",
		"summary", cfg.Compare.SummaryOutput,
		"xml", cfg.Gauge.Output,
		"records", len(res.Records),
		"checkpoints", gstats.Checkpoints)
	printOK(out, "Wrote %d offsets to %s", len(res.Records), cfg.Compare.SummaryOutput)
	if cfg.Gauge.Output != stdoutPath {
		printOK(out, "Wrote %d checkpoints to %s", gstats.Checkpoints, cfg.Gauge.Output)
	}
	return nil
}

func printCompareStats(w io.Writer, cfg *config.Config, s offset.Stats, g gauge.Stats) {
	printSection(w, "Calculation Summary")
	fmt.Fprintf(w, "  Axis mappings:   %d\n", s.AxisMappings)
	fmt.Fprintf(w, "  JSN mappings:    %d\n", s.JSNMappings)
	fmt.Fprintf(w, "  Offsets:         %d\n", s.Produced)
	fmt.Fprintf(w, "  Matched pairs:   %d\n", s.MatchedPairs)
	fmt.Fprintf(w, "  Unmatched JSN:   %d\n", s.UnmatchedJSN)
	fmt.Fprintf(w, "  Missing values:  %d\n", s.MissingValues)
	fmt.Fprintf(w, "  Duplicate JSN:   %d (policy: %s)\n", s.DuplicateJSN, cfg.Compare.DuplicateJSN)
	fmt.Fprintf(w, "  Station/Model:   %s / %s\n", cfg.Gauge.StationName, cfg.Gauge.ModelName)
	fmt.Fprintln(w)

	for _, p := range s.Dropped {
		printWarn(w, "Dropped %s / %s: fewer than %d pairs", p.Perceptron, p.CMM, offset.MinPairs)
	}
	for _, name := range g.Excluded {
		printWarn(w, "Excluded %q from XML: no checkpoint[axis] pattern", name)
	}
	if len(s.Dropped) > 0 || len(g.Excluded) > 0 {
		fmt.Fprintln(w)
	}
}
