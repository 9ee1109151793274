package workbook

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/report"
)

// MeasurementHeaders are the columns of the converted CMM report sheet.
var MeasurementHeaders = []string{
	"Punto",
	"Eje",
	"Nominal",
	"Tolerancia +",
	"Tolerancia -",
	"Medición",
	"Desviación",
	"Fuera de Tolerancia",
}

// SummaryHeaders are the columns of the offset summary sheet.
var SummaryHeaders = []string{
	"Perc Axis",
	"CMM Axis",
	"Perc Mean",
	"CMM Mean",
	"Correlation coefficient",
	"6 Sigma",
	"Calculated Offset",
}

// WriteMeasurements writes the converted report as a single-sheet workbook.
func WriteMeasurements(w io.Writer, sheet string, ms []report.Measurement) error {
	rows := make([][]interface{}, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []interface{}{
			m.Checkpoint,
			m.Axis,
			m.Nominal,
			m.TolPlus,
			m.TolMinus,
			m.Measured,
			m.Deviation,
			m.OutOfTolerance,
		})
	}
	return writeSheet(w, sheet, MeasurementHeaders, rows)
}

// WriteOffsetSummary writes offset records as a single-sheet workbook.
// Undefined values are left as empty cells.
func WriteOffsetSummary(w io.Writer, sheet string, records []offset.Record) error {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			r.PercAxis,
			r.CMMAxis,
			cellNumber(r.PercMean),
			cellNumber(r.CMMMean),
			cellNumber(r.Correlation),
			cellNumber(r.SixSigma),
			cellNumber(r.Offset),
		})
	}
	return writeSheet(w, sheet, SummaryHeaders, rows)
}

func cellNumber(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func writeSheet(w io.Writer, sheet string, headers []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
