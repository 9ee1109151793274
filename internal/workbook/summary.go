package workbook

import (
	"fmt"
	"io"
	"math"

	"github.com/dbsmedya/cmmcal/internal/logger"
	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/types"
)

// ReadOffsetSummary loads offset records back from a workbook written by
// WriteOffsetSummary. Blank numeric cells read as NaN.
func ReadOffsetSummary(r io.Reader, sheet string, log *logger.Logger) ([]offset.Record, error) {
	wb, err := Open(r, log)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	t, err := wb.Table(sheet)
	if err != nil {
		return nil, err
	}
	if missing := t.MissingColumns(SummaryHeaders...); len(missing) > 0 {
		se := &types.SchemaError{}
		for _, col := range missing {
			se.Add("sheet %q: missing column %q", sheet, col)
		}
		return nil, se
	}

	records := make([]offset.Record, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		rec := offset.Record{
			PercAxis:    t.Cell(i, "Perc Axis"),
			CMMAxis:     t.Cell(i, "CMM Axis"),
			PercMean:    numberOrNaN(t.Cell(i, "Perc Mean")),
			CMMMean:     numberOrNaN(t.Cell(i, "CMM Mean")),
			Correlation: numberOrNaN(t.Cell(i, "Correlation coefficient")),
			SixSigma:    numberOrNaN(t.Cell(i, "6 Sigma")),
		}
		off, ok := types.ParseNumber(t.Cell(i, "Calculated Offset"))
		if !ok {
			return nil, fmt.Errorf("sheet %q row %d: Calculated Offset %q is not a number", sheet, i+2, t.Cell(i, "Calculated Offset"))
		}
		rec.Offset = off
		records = append(records, rec)
	}
	return records, nil
}

func numberOrNaN(cell string) float64 {
	if v, ok := types.ParseNumber(cell); ok {
		return v
	}
	return math.NaN()
}
