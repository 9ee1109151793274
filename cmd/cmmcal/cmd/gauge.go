package cmd

import (
	"fmt"
	"os"

	"github.com/dbsmedya/cmmcal/internal/gauge"
	"github.com/dbsmedya/cmmcal/internal/workbook"
	"github.com/spf13/cobra"
)

var (
	gaugeXMLOut  string
	gaugeStation string
	gaugeModel   string
)

var gaugeCmd = &cobra.Command{
	Use:   "gauge SUMMARY.xlsx",
	Short: "Generate gauge offset XML from an offset summary workbook",
	Long: `Gauge reads the offset summary written by the compare command and
renders the gauge offset XML document again, for example for another
station or model, without recomputing the offsets.

Example:
  cmmcal gauge Resultados_Offsets.xlsx --model K_SUV --xml-out -`,
	Args: cobra.ExactArgs(1),
	RunE: runGauge,
}

func init() {
	gaugeCmd.Flags().StringVar(&gaugeXMLOut, "xml-out", "",
		"Gauge XML path, '-' for stdout (default from config)")
	gaugeCmd.Flags().StringVar(&gaugeStation, "station", "",
		"Override gauge station name")
	gaugeCmd.Flags().StringVar(&gaugeModel, "model", "",
		"Override gauge model name")

	rootCmd.AddCommand(gaugeCmd)
}

func runGauge(cmd *cobra.Command, args []string) error {
	overrides := GetCLIOverrides()
	overrides.StationName = gaugeStation
	overrides.ModelName = gaugeModel
	overrides.GaugeOutput = gaugeXMLOut

	cfg, log, err := setup(overrides)
	if err != nil {
		return err
	}
	defer log.Sync()

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

	records, err := workbook.ReadOffsetSummary(f, cfg.Compare.SummarySheet, log)
	if err != nil {
		return err
	}

	doc, stats, err := gauge.Marshal(records, gauge.OptionsFromConfig(&cfg.Gauge))
	if err != nil {
		return err
	}

	for _, name := range stats.Excluded {
		log.Debugw("Record excluded from XML", "perc_axis", name)
	}

	if err := writeArtifacts(cmd.OutOrStdout(), artifact{path: cfg.Gauge.Output, data: renderXML(cfg.Gauge.Output, doc)}); err != nil {
		return err
	}

	log.Infow("Gauge XML written",
		"output", cfg.Gauge.Output,
		"records", stats.Records,
		"checkpoints", stats.Checkpoints,
		"excluded", len(stats.Excluded))
	if cfg.Gauge.Output != stdoutPath {
		printOK(out, "Wrote %d checkpoints (%d excluded records) to %s",
			stats.Checkpoints, len(stats.Excluded), cfg.Gauge.Output)
	}
	return nil
}
